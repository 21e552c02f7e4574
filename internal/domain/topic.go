package domain

// Topic is a Shopify webhook topic handled by this service
type Topic string

const (
	TopicOrdersRefunded          Topic = "orders/refunded"
	TopicOrdersPartiallyRefunded Topic = "orders/partially_refunded"
	TopicOrdersCancelled         Topic = "orders/cancelled"
	TopicAppUninstalled          Topic = "app/uninstalled"
)

// OrderTopics lists the order topics that trigger unenrollment
var OrderTopics = []Topic{
	TopicOrdersRefunded,
	TopicOrdersPartiallyRefunded,
	TopicOrdersCancelled,
}

// ParseOrderTopic maps a raw topic string onto a supported order topic
func ParseOrderTopic(raw string) (Topic, bool) {
	for _, t := range OrderTopics {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

func (t Topic) String() string {
	return string(t)
}
