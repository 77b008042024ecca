package smtpout

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"
)

// Sender delivers drafted emails through a plain SMTP relay. It is the
// fallback transport for installs without Gmail API credentials.
type Sender struct {
	addr     string // host:port
	username string
	password string
	from     string
	logger   *zap.Logger
}

// NewSender creates a relay-backed sender. Empty username disables
// authentication.
func NewSender(addr, username, password, from string, logger *zap.Logger) *Sender {
	return &Sender{
		addr:     addr,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

// Send delivers one plain-text message. The context bounds only the
// caller's patience; the SMTP dialogue itself runs to completion once
// started.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth sasl.Client
	if s.username != "" {
		auth = sasl.NewPlainClient("", s.username, s.password)
	}
	if err := smtp.SendMail(s.addr, auth, s.from, []string{to}, strings.NewReader(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", to, err)
	}
	s.logger.Info("Email sent via SMTP relay", zap.String("to", to))
	return nil
}
