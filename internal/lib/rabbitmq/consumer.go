package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
)

const maxInFlight = 10

// ConsumerMessage запускает обработку очереди queueName в фоне.
// Успешно обработанное сообщение подтверждается, при ошибке handler возвращается в очередь.
// Одновременно обрабатывается не больше maxInFlight сообщений. Остановка по ctx.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go dispatch(ctx, log, delivery, handler)
	return nil
}

// acknowledger то, что dispatch делает с доставкой после обработки.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func dispatch(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery, handler func([]byte) error) {
	sem := make(chan struct{}, maxInFlight)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				settle(log, d, d.Body, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func settle(log *slog.Logger, ack acknowledger, body []byte, handler func([]byte) error) {
	if err := handler(body); err != nil {
		log.Warn("message handling failed, requeue", sl.Err(err))
		if nackErr := ack.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
