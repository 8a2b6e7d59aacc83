package mailer

import "context"

// Notifier delivers a verification code to an address.
type Notifier interface {
	SendVerificationCode(ctx context.Context, toEmail, toName, code string) error
}

// emailJob is the wire format for queued deliveries.
type emailJob struct {
	ToEmail string `json:"to_email"`
	ToName  string `json:"to_name"`
	Code    string `json:"code"`
}
