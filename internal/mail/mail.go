// Package mail defines the one-way notification channel used for password
// recovery and change confirmations. The core only depends on the Sender
// interface; SMTP delivery is an implementation detail.
package mail

import (
	"log/slog"
	"sync"

	gomail "github.com/wneessen/go-mail"
)

// Message is a plain-text notification.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations must be safe for concurrent
// use.
type Sender interface {
	Send(msg Message) error
}

// SMTPSender delivers messages over SMTP with STARTTLS.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (s *SMTPSender) Send(msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return err
	}
	if err := m.To(msg.To); err != nil {
		return err
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	opts := []gomail.Option{
		gomail.WithPort(s.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.Username),
			gomail.WithPassword(s.Password),
		)
	}
	client, err := gomail.NewClient(s.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSend(m)
}

// LogSender logs message envelopes instead of delivering them. It backs
// deployments without an SMTP host; bodies are not logged because reset
// links are credentials.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(msg Message) error {
	s.Logger.Info("mail not configured, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Recorder captures sent messages for tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
}

func (r *Recorder) Send(msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of the captured messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.sent))
	copy(out, r.sent)
	return out
}
