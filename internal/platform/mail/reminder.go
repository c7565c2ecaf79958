package mail

import "net/mail"

const (
	ReminderTemplate = "reminder"
	ReminderSubject  = "Time to get back to problem solving!"
	ProblemsetURL    = "https://codeforces.com/problemset"
)

type ReminderData struct {
	AppName        string
	Name           string
	Handle         string
	InactiveDays   int
	ProblemsetURL  string
	UnsubscribeURL string
}

func NewReminderMessage(toName, toEmail string, data ReminderData) *Message {
	if data.ProblemsetURL == "" {
		data.ProblemsetURL = ProblemsetURL
	}
	return &Message{
		To:           mail.Address{Name: toName, Address: toEmail},
		Subject:      ReminderSubject,
		TemplateName: ReminderTemplate,
		TemplateData: data,
	}
}
