// Package mailer delivers transactional email such as password reset links.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"ecom-backend/pkg/utils"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Message is a single outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// dialer is the part of gomail.Dialer the SMTP mailer uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends through an authenticated SMTP relay.
type SMTPMailer struct {
	from   string
	dialer dialer
	log    *zap.Logger
}

func NewSMTPMailer(cfg utils.EmailConfig, log *zap.Logger) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	return &SMTPMailer{
		from:   from,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		log:    log.With(zap.String("component", "mailer")),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(gm); err != nil {
		m.log.Error("Failed to send email", zap.Error(err), zap.String("to", msg.To))
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}

	m.log.Info("Email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// ErrNoSMTP is returned by New when no SMTP host is configured outside debug
// mode. Reset mail would otherwise be reported as delivered while going nowhere.
var ErrNoSMTP = errors.New("SMTP_HOST is required unless DEBUG is set")

// LogMailer records that a message would have been sent. It is used in debug
// mode when no SMTP host is configured. Bodies may carry reset links and are
// not logged.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log.With(zap.String("component", "mailer"))}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("Email (not sent, SMTP disabled)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTML)),
	)
	return nil
}

// New picks the SMTP mailer when a host is configured. Without one it falls
// back to LogMailer only in debug mode.
func New(cfg utils.EmailConfig, debug bool, log *zap.Logger) (Mailer, error) {
	if cfg.Host != "" {
		return NewSMTPMailer(cfg, log), nil
	}
	if !debug {
		return nil, ErrNoSMTP
	}

	log.Warn("SMTP_HOST not set, emails will only be logged")
	return NewLogMailer(log), nil
}
