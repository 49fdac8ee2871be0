package rabbitmq

// Имена топологии уведомлений.
const (
	ExchangeNotifications = "notifications"
	RoutingKeyExpiring    = "expiring"
	QueueExpiring         = "notifications.expiring"
)

// QueueConfig очередь и ключ, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues очереди, которые объявляют и планировщик, и отправитель.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueExpiring, RoutingKey: RoutingKeyExpiring},
	}
}
