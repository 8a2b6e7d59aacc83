package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/optima-medical/staffserver/internal/mq"
)

// QueueNotifier hands verification emails to the message queue instead of
// sending them inline; the mail-worker command drains the other end. A
// publish failure still surfaces to the caller, matching the synchronous
// notifier contract.
type QueueNotifier struct {
	queue *mq.MQ
}

func NewQueueNotifier(queue *mq.MQ) *QueueNotifier {
	return &QueueNotifier{queue: queue}
}

func (n *QueueNotifier) SendVerificationCode(ctx context.Context, toEmail, toName, code string) error {
	payload, err := json.Marshal(emailJob{
		ToEmail: toEmail,
		ToName:  toName,
		Code:    code,
	})
	if err != nil {
		return err
	}

	if _, err := n.queue.Publish(ctx, mq.EmailChannel, payload, map[string]string{"kind": "verification"}); err != nil {
		return fmt.Errorf("enqueue verification email: %w", err)
	}
	return nil
}
