package mail

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ConsoleSender writes messages to an io.Writer instead of delivering them.
// Sent keeps a copy of every message for inspection.
type ConsoleSender struct {
	out        io.Writer
	from       string
	subjPrefix string

	mu   sync.Mutex
	sent []Message
}

func NewConsoleSender(appName, from string) *ConsoleSender {
	return &ConsoleSender{
		out:        os.Stdout,
		from:       from,
		subjPrefix: "[" + appName + "] ",
	}
}

// WithOutput redirects the printed messages.
func (s *ConsoleSender) WithOutput(w io.Writer) *ConsoleSender {
	s.out = w
	return s
}

func (s *ConsoleSender) Send(_ context.Context, msg *Message) error {
	if err := msg.Render(); err != nil {
		return err
	}
	if !msg.HasRecipient() || !msg.HasContent() {
		return errors.New("email has no recipient or content")
	}

	body := new(strings.Builder)
	fmt.Fprintf(body, "From: %s\r\n", s.from)
	fmt.Fprintf(body, "To: %s\r\n", msg.To.String())
	fmt.Fprintf(body, "Subject: %s%s\r\n", s.subjPrefix, msg.Subject)
	fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	body.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	body.WriteString(msg.TextContent)
	body.WriteString("\r\n")
	body.WriteString(strings.Repeat("-", 72))
	body.WriteString("\r\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.out, body.String()); err != nil {
		return errors.Wrap(err, "writing console email")
	}
	s.sent = append(s.sent, *msg)
	return nil
}

func (s *ConsoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
