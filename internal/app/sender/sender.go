// Package sender собирает процесс, который читает напоминания из очереди и рассылает письма.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/license-portal/internal/config"
	"github.com/magabrotheeeer/license-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/lib/smtp"
	"github.com/magabrotheeeer/license-portal/internal/metrics"
	senderservice "github.com/magabrotheeeer/license-portal/internal/services/sender"
)

// App представляет приложение рассылки.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к брокеру и готовит SMTP транспорт.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	metrics.InitMetrics()

	transport := smtp.NewTransport(cfg.SMTP, logger)
	renewURL := strings.TrimRight(cfg.PublicURL, "/") + "/dashboard"

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.New(transport, logger, renewURL),
		logger:        logger,
	}, nil
}

// Run потребляет очередь напоминаний до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueueExpiring, a.senderService.SendExpiringNotice)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueExpiring), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
