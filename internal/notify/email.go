package notify

import (
    "context"
    "fmt"
    "net/smtp"
    "strings"

    "github.com/domodwyer/mailyak/v3"
)

// Email sends plain-text mail over SMTP.
type Email struct {
    host string
    addr string
    auth smtp.Auth
    from string
    // send is swapped in tests.
    send func(m *mailyak.MailYak) error
}

// NewEmail returns nil when no sender account is configured.
func NewEmail(host string, port int, user, password, from string) *Email {
    if host == "" || user == "" || password == "" {
        return nil
    }
    if from == "" {
        from = user
    }
    return &Email{
        host: host,
        addr: fmt.Sprintf("%s:%d", host, port),
        auth: smtp.PlainAuth("", user, password, host),
        from: from,
        send: func(m *mailyak.MailYak) error { return m.Send() },
    }
}

func (e *Email) Name() string { return "email" }

func (e *Email) Accepts(to Contact) bool { return strings.Contains(to.Email, "@") }

func (e *Email) Send(_ context.Context, to Contact, msg Message) error {
    m := mailyak.New(e.addr, e.auth)
    m.To(strings.TrimSpace(to.Email))
    m.From(e.from)
    m.FromName("Rifas")
    m.Subject(msg.Subject)
    m.Plain().Set(msg.Body)
    return e.send(m)
}
