// Package notify publishes booking notifications. Publishing never fails the caller.
package notify

import (
	"context"
	"time"

	"github.com/Domenick1991/activitybooking/internal/kafka"
	"github.com/Domenick1991/activitybooking/internal/metrics"
	"go.uber.org/zap"
)

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error
}

type Notifier struct {
	producer Producer
	topic    string
	retries  int
	now      func() time.Time
}

type Option func(*Notifier)

func WithRetries(n int) Option {
	return func(nt *Notifier) {
		nt.retries = n
	}
}

func NewNotifier(producer Producer, topic string, opts ...Option) *Notifier {
	n := &Notifier{producer: producer, topic: topic, retries: 2, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) Emit(ctx context.Context, event kafka.Event) {
	if n == nil || n.producer == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = n.now()
	}

	if err := n.producer.PublishWithRetry(ctx, n.topic, event.Key(), event, n.retries); err != nil {
		metrics.NotificationFailed(string(event.Type))
		zap.L().Error("notification not published",
			zap.String("event", string(event.Type)),
			zap.Int64("user_id", event.UserID),
			zap.Int64("booking_id", event.BookingID),
			zap.Error(err),
		)
	}
}
