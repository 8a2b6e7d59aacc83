package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/optima-medical/staffserver/config"
	gomail "gopkg.in/gomail.v2"
)

const verificationSubject = "Verify Your Email - Optima Medical"

// SMTPNotifier sends verification emails directly over SMTP.
type SMTPNotifier struct {
	dialer     *gomail.Dialer
	from       string
	senderName string
}

func NewSMTPNotifier(cfg config.SMTPConfig) (*SMTPNotifier, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, errors.New("smtp from address is required")
	}

	return &SMTPNotifier{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:       cfg.FromEmail,
		senderName: cfg.SenderName,
	}, nil
}

// SendVerificationCode delivers the code. No retries; the caller decides
// what a failure means.
func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, toEmail, toName, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", n.from, n.senderName)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", verificationSubject)
	msg.SetBody("text/plain", plainBody(toName, code))
	msg.AddAlternative("text/html", htmlBody(toName, code))

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func plainBody(name, code string) string {
	return fmt.Sprintf(`Hi %s,

Please verify your email address by entering the code below:

%s

This code will expire in 10 minutes.

If you didn't request this code, please ignore this email.
`, name, code)
}

func htmlBody(name, code string) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Please verify your email address by entering the code below:</p>
<div style="font-size:32px;font-weight:bold;letter-spacing:8px;font-family:monospace;">%s</div>
<p>This code will expire in 10 minutes.</p>
<p>If you didn't request this code, please ignore this email.</p>`, name, code)
}
