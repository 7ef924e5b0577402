package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"imdb/proj/internal/api/tasks"
	"imdb/proj/internal/cache"
	"imdb/proj/internal/config"
	"imdb/proj/internal/lib/logger"
	"imdb/proj/internal/lib/logger/sl"
	"imdb/proj/internal/mails"
	"imdb/proj/internal/queue"
	"imdb/proj/internal/services"
	"imdb/proj/internal/storage/postgres"
	"imdb/proj/internal/storage/postgres/models"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")

	flag.Parse()
	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)
	if err := run(cfg, log); err != nil {
		log.Error("shutting down the server", sl.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DB.ConnectTimeout)
	defer cancel()
	storage, err := postgres.New(ctx, cfg.DB.Dsn, cfg.DB.MaxConns, cfg.DB.MaxConnIdleTime)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer storage.Close()
	log.Info("database connection established")
	if cfg.DB.AutoMigrate {
		if err := storage.Migrate(context.Background()); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
	}

	titlesCache, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTL, log)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer titlesCache.Close()

	broker, err := queue.NewBroker(cfg.Queue, log)
	if err != nil {
		return fmt.Errorf("connecting to queue: %w", err)
	}
	defer broker.Close()

	mailer, err := mails.New(cfg.SMTPServer, log)
	if err != nil {
		return fmt.Errorf("setting up mailer: %w", err)
	}
	consumer, err := queue.NewConsumer(cfg.Queue, broker.Subscriber, log)
	if err != nil {
		return fmt.Errorf("setting up consumer: %w", err)
	}
	consumer.Handle(mails.SendEmailTask, mails.TaskHandler(mailer, log))
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go func() {
		if err := consumer.Run(consumerCtx); err != nil {
			log.Error("task consumer stopped", sl.Err(err))
		}
	}()

	bgTasks := tasks.New(log, cfg.BgTasks.MaxWorkers, cfg.BgTasks.MaxQueueSize)
	bgTasks.Run()

	svc := services.New(
		log,
		cfg,
		models.New(storage),
		titlesCache,
		queue.NewPublisher(broker.Publisher, cfg.Queue.Topic, log),
		bgTasks,
	)
	app := NewApplication(cfg, log, svc)
	return app.serve(
		drainer{name: "background tasks", shutdown: bgTasks.Shutdown},
		drainer{name: "task consumer", shutdown: func(context.Context) error { return consumer.Close() }},
	)
}
