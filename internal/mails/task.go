package mails

import (
	"context"
	"errors"
	"log/slog"

	"imdb/proj/internal/queue"
)

const SendEmailTask = "send_email"

type SendEmailArgs struct {
	Message
	Recipient string `json:"recipient"`
}

// TaskHandler delivers send_email tasks through sender.
func TaskHandler(sender Sender, log *slog.Logger) queue.HandlerFunc {
	return func(ctx context.Context, task queue.Task) error {
		const op = "mails.TaskHandler"
		var args SendEmailArgs
		if err := task.Decode(&args); err != nil {
			return err
		}
		if args.Recipient == "" {
			return errors.New("send_email: recipient is empty")
		}
		if err := sender.Send(ctx, args.Message, args.Recipient); err != nil {
			return err
		}
		log.Info("email sent", "op", op, "recipient", args.Recipient, "subject", args.Subject)
		return nil
	}
}
