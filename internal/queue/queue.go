// Package queue publishes named tasks onto a message broker and dispatches
// them to registered handlers on the consuming side.
package queue

import (
	"context"
	"fmt"
	"log/slog"

	"imdb/proj/internal/metrics"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// Task is the envelope carried by every queue message.
type Task struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// Decode unmarshals the task arguments into dst.
func (t Task) Decode(dst any) error {
	return json.Unmarshal(t.Args, dst)
}

type Publisher struct {
	pub   message.Publisher
	topic string
	log   *slog.Logger
}

func NewPublisher(pub message.Publisher, topic string, log *slog.Logger) *Publisher {
	return &Publisher{pub: pub, topic: topic, log: log}
}

// Enqueue publishes the task name with its JSON encoded args.
func (p *Publisher) Enqueue(ctx context.Context, name string, args any) error {
	const op = "queue.Publisher.Enqueue"
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%s: encoding args: %w", op, err)
	}
	payload, err := json.Marshal(Task{Name: name, Args: rawArgs})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("task", name)
	msg.SetContext(ctx)
	if err := p.pub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.TasksTotal.WithLabelValues(name, "enqueued").Inc()
	p.log.Debug("task enqueued", "op", op, "task", name, "message_uuid", msg.UUID)
	return nil
}
