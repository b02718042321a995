package rabbitmq

import "github.com/magabrotheeeer/ebook-store/internal/models"

// prefetch совпадает с числом одновременно обрабатываемых сообщений потребителем.
const prefetch = 10

// QueueConfig описывает очередь и ключи, по которым она привязана к exchange.
type QueueConfig struct {
	QueueName   string
	RoutingKeys []string
}

// PaymentQueues возвращает очередь уведомлений покупателя, привязанную ко всем событиям оплаты.
func PaymentQueues(queueName string) []QueueConfig {
	return []QueueConfig{
		{
			QueueName: queueName,
			RoutingKeys: []string{
				models.EventPaymentSubmitted,
				models.EventPaymentApproved,
				models.EventPaymentRejected,
			},
		},
	}
}
