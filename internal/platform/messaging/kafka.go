package messaging

import (
	"context"
	"log/slog"
	"sync"

	contractsv1 "agora/contracts/gen/events/v1"
)

const subscriberBuffer = 128

// Kafka is the event bus adapter used by the outbox relay and consumers.
// Delivery is in-process publish/subscribe; brokers are recorded for the
// external adapter.
type Kafka struct {
	mu          sync.RWMutex
	brokers     []string
	subscribers map[string][]chan contractsv1.Envelope
	wg          sync.WaitGroup
	logger      *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		brokers:     append([]string(nil), brokers...),
		subscribers: make(map[string][]chan contractsv1.Envelope),
		logger:      logger,
	}, nil
}

func (k *Kafka) Brokers() []string {
	return append([]string(nil), k.brokers...)
}

func (k *Kafka) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	k.mu.RLock()
	subs := append([]chan contractsv1.Envelope(nil), k.subscribers[topic]...)
	k.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub <- event:
		default:
			k.logger.Warn("dropping event for slow subscriber",
				"event", "kafka_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
			)
		}
	}

	k.logger.Debug("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"subscribers", len(subs),
	)
	return nil
}

// Subscribe delivers topic events to handler until ctx is done. Handler
// errors are logged; the event is not redelivered.
func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	ch := make(chan contractsv1.Envelope, subscriberBuffer)

	k.mu.Lock()
	k.subscribers[topic] = append(k.subscribers[topic], ch)
	k.mu.Unlock()

	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		for {
			select {
			case <-ctx.Done():
				k.removeSubscriber(topic, ch)
				return
			case event := <-ch:
				if err := handler(ctx, event); err != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

// Wait blocks until every subscriber goroutine has returned.
func (k *Kafka) Wait() {
	k.wg.Wait()
}

func (k *Kafka) removeSubscriber(topic string, target chan contractsv1.Envelope) {
	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]chan contractsv1.Envelope, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	k.subscribers[topic] = filtered
}
