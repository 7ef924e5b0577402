package queue

import (
	"errors"
	"fmt"
	"log/slog"

	"imdb/proj/internal/config"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
)

const (
	DriverGoChannel = "gochannel"
	DriverNats      = "nats"
)

// Broker is the pair of publisher and subscriber backing the task queue.
type Broker struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	logger     watermill.LoggerAdapter
}

func NewBroker(cfg config.Queue, log *slog.Logger) (*Broker, error) {
	logger := watermill.NewSlogLogger(log.With("component", "watermill"))
	switch cfg.Driver {
	case DriverGoChannel, "":
		pubSub := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		}, logger)
		return &Broker{Publisher: pubSub, Subscriber: pubSub, logger: logger}, nil
	case DriverNats:
		return newNatsBroker(cfg, logger)
	}
	return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
}

func newNatsBroker(cfg config.Queue, logger watermill.LoggerAdapter) (*Broker, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NatsURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NatsURL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			DurablePrefix: cfg.QueueGroup,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxDeliver(cfg.MaxRetries + 1),
			},
		},
	}, logger)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}
	return &Broker{Publisher: pub, Subscriber: sub, logger: logger}, nil
}

func (b *Broker) Close() error {
	errPub := b.Publisher.Close()
	var errSub error
	// gochannel serves both sides with a single instance.
	if any(b.Subscriber) != any(b.Publisher) {
		errSub = b.Subscriber.Close()
	}
	return errors.Join(errPub, errSub)
}
