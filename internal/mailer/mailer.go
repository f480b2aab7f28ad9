// Package mailer delivers transactional e-mail such as confirmation codes.
package mailer

import (
	"context"
	"strings"
	"time"

	"yamdb/internal/logging"
	"yamdb/internal/metrics"
)

// Message is a plain-text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Dispatcher sends a message. Implementations must honour ctx cancellation.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// LogDispatcher writes messages to the log instead of sending them.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, msg Message) error {
	logging.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("mail (log dispatcher)")
	return nil
}

// FireAndForget hands each message to a goroutine and returns at once.
// Delivery gets its own context bounded by timeout; failures are logged and
// counted, never returned.
type FireAndForget struct {
	next    Dispatcher
	timeout time.Duration
	done    func(error) // test hook, called after every delivery attempt
}

func NewFireAndForget(next Dispatcher, timeout time.Duration) *FireAndForget {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FireAndForget{next: next, timeout: timeout}
}

func (f *FireAndForget) Dispatch(ctx context.Context, msg Message) error {
	// delivery outlives the request
	detached := context.WithoutCancel(ctx)
	go func() {
		sendCtx, cancel := context.WithTimeout(detached, f.timeout)
		defer cancel()

		err := f.next.Dispatch(sendCtx, msg)
		if err != nil {
			metrics.MailDispatches.WithLabelValues("failed").Inc()
			logging.Error().Err(err).Str("to", msg.To).Msg("mail delivery failed")
		} else {
			metrics.MailDispatches.WithLabelValues("sent").Inc()
		}
		if f.done != nil {
			f.done(err)
		}
	}()
	return nil
}

// New picks the SMTP dispatcher when a host is configured and the log
// dispatcher otherwise, wrapped for asynchronous delivery.
func New(host string, port int, user, password, from string, timeout time.Duration) Dispatcher {
	var next Dispatcher = LogDispatcher{}
	if strings.TrimSpace(host) != "" {
		next = NewSMTPDispatcher(SMTPConfig{
			Host:     host,
			Port:     port,
			User:     user,
			Password: password,
			From:     from,
		})
	}
	return NewFireAndForget(next, timeout)
}
