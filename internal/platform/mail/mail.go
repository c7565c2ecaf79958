package mail

import (
	"bytes"
	"context"
	"embed"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

//go:embed templates/*
var templateFS embed.FS

var (
	textTemplates *texttmpl.Template
	htmlTemplates *htmltmpl.Template
	parseErr      error
	parseOnce     sync.Once
)

type Message struct {
	To      mail.Address
	Subject string

	TemplateName string // without extension
	TemplateData interface{}
	TextContent  string
	HTMLContent  string
}

// Sender delivers one rendered message. Implementations send synchronously so
// the caller can count failures.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

func parseTemplates() {
	textTemplates, parseErr = texttmpl.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.txt")
	if parseErr != nil {
		return
	}
	htmlTemplates, parseErr = htmltmpl.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.gohtml")
}

// Render fills TextContent and HTMLContent from the named templates.
func (m *Message) Render() error {
	if m.TemplateName == "" {
		return nil
	}
	parseOnce.Do(parseTemplates)
	if parseErr != nil {
		return errors.Wrap(parseErr, "parsing email templates")
	}

	var buf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buf, m.TemplateName+".txt", m.TemplateData); err != nil {
		return errors.Wrapf(err, "rendering %s.txt", m.TemplateName)
	}
	m.TextContent = buf.String()

	buf.Reset()
	if err := htmlTemplates.ExecuteTemplate(&buf, m.TemplateName+".gohtml", m.TemplateData); err != nil {
		return errors.Wrapf(err, "rendering %s.gohtml", m.TemplateName)
	}
	m.HTMLContent = buf.String()
	return nil
}

func (m *Message) HasRecipient() bool { return m.To.Address != "" }
func (m *Message) HasContent() bool   { return m.TextContent != "" || m.HTMLContent != "" }
