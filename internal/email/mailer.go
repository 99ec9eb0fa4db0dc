package email

import "context"

// Message is a transactional email to deliver.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers transactional email. Sends are best-effort everywhere in
// this service: callers log failures and move on, they never fail the
// operation that triggered the send.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Noop is the mailer used when no provider is configured.
type Noop struct{}

// Send discards the message.
func (Noop) Send(context.Context, Message) error { return nil }
