package mailer

import (
	"context"
	"encoding/json"

	"github.com/optima-medical/staffserver/internal/mq"
	"go.uber.org/zap"
)

// Worker consumes queued email jobs and delivers them via the notifier.
type Worker struct {
	queue    *mq.MQ
	notifier Notifier
	logger   *zap.Logger
}

func NewWorker(queue *mq.MQ, notifier Notifier, logger *zap.Logger) *Worker {
	return &Worker{
		queue:    queue,
		notifier: notifier,
		logger:   logger.Named("mail-worker"),
	}
}

// Run blocks consuming the email channel until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("consuming email jobs", zap.String("channel", mq.EmailChannel))
	return w.queue.Subscribe(ctx, mq.EmailChannel, w.handle)
}

func (w *Worker) handle(ctx context.Context, msg mq.Message) error {
	var job emailJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		// Undecodable jobs would redeliver forever; drop them.
		w.logger.Error("dropping undecodable email job", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}

	if err := w.notifier.SendVerificationCode(ctx, job.ToEmail, job.ToName, job.Code); err != nil {
		w.logger.Warn("email delivery failed, nacking", zap.String("to", job.ToEmail), zap.Error(err))
		return err
	}

	w.logger.Info("verification email delivered", zap.String("to", job.ToEmail))
	return nil
}
