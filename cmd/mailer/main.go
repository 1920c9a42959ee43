package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ZhengkaiWang/sfin-admin/internal/mailer"
	"github.com/ZhengkaiWang/sfin-admin/internal/portal/app"
	"github.com/ZhengkaiWang/sfin-admin/pkg/slogx"
)

func main() {
	cfg := app.LoadMailerConfig()
	if cfg.AMQPURL == "" {
		log.Fatal("PORTAL_AMQP_URL is required")
	}
	if cfg.SMTPHost == "" {
		log.Fatal("SMTP_HOST is required")
	}

	logger := slogx.New(slogx.Config{
		Service: "sfin-mailer",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("failed to connect to broker: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("failed to open broker channel: %v", err)
	}

	sender := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	worker, err := mailer.NewWorker(ch, cfg.EmailQueue, sender, logger)
	if err != nil {
		log.Fatalf("failed to initialize worker: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("mailer worker starting", "queue", cfg.EmailQueue)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker error: %v", err)
	}
	logger.Info("mailer worker stopped")
}
