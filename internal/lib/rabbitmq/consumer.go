package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
)

// ConsumerMessage запускает потребителя очереди. Одновременно обрабатывается не больше
// prefetch сообщений. Ошибка обработчика возвращает сообщение в очередь.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string,
	handler func(context.Context, []byte) error) error {
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

	go dispatch(ctx, log, delivery, prefetch, handler)

	return nil
}

// dispatch раздаёт сообщения обработчикам, не больше limit одновременно.
// Возвращается при закрытии канала доставки или отмене ctx, в том числе
// когда все слоты заняты.
func dispatch(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery, limit int,
	handler func(context.Context, []byte) error) {
	sem := make(chan struct{}, limit)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				// Неподтверждённое сообщение брокер вернёт в очередь при закрытии канала.
				return
			}
			go func(delivery amqp.Delivery) {
				defer func() { <-sem }()
				if err := handler(ctx, delivery.Body); err != nil {
					log.Warn("message handling failed, requeue",
						slog.String("routing_key", delivery.RoutingKey), sl.Err(err))
					if nackErr := delivery.Nack(false, true); nackErr != nil {
						log.Error("failed to nack message", sl.Err(nackErr))
					}
					return
				}
				if ackErr := delivery.Ack(false); ackErr != nil {
					log.Error("failed to ack message", sl.Err(ackErr))
				}
			}(d)
		case <-ctx.Done():
			return
		}
	}
}
