package mailer

import (
	"context"
	"errors"

	"github.com/havenloop/haven-backend/config"
	"github.com/havenloop/haven-backend/internal/models"
	"github.com/havenloop/haven-backend/internal/utils"
	gomail "gopkg.in/gomail.v2"
)

// SMTPDispatcher sends via an SMTP relay. The same dispatcher covers an
// authenticated STARTTLS relay (587 + credentials) and a bare local relay
// (1025, no auth); only the config differs.
type SMTPDispatcher struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPDispatcher(cfg config.SMTPConfig) *SMTPDispatcher {
	return &SMTPDispatcher{
		dialer: NewDialer(cfg),
		from:   cfg.From,
	}
}

// NewDialer builds the gomail dialer for the given relay config. An empty
// username means an unauthenticated dial.
func NewDialer(cfg config.SMTPConfig) *gomail.Dialer {
	var d *gomail.Dialer
	if cfg.Username == "" {
		d = &gomail.Dialer{Host: cfg.Host, Port: cfg.Port}
	} else {
		d = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	d.SSL = cfg.SSL
	return d
}

func (s *SMTPDispatcher) Send(ctx context.Context, alert *models.EmailAlert) error {
	if !alert.HasRecipient() {
		return utils.Stage(utils.KindDelivery, "no_recipient", errors.New("alert has no recipient"))
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", alert.To)
	m.SetHeader("Subject", alert.Subject)
	m.SetBody("text/plain", alert.Body)

	// gomail has no context support; run the dial in a goroutine so the
	// caller's timeout still bounds the attempt.
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return utils.Stage(utils.KindDelivery, "timeout", ctx.Err())
	case err := <-done:
		if err != nil {
			return utils.Stage(utils.KindDelivery, "smtp_error", err)
		}
	}
	return nil
}
