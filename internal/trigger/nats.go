// Package trigger delivers storage events to the ingestor, either from a
// NATS subject or from a watched directory.
package trigger

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"pdf-rag/internal/models"
)

// Handler receives one storage event at a time.
type Handler func(ctx context.Context, ev models.StorageEvent)

// headerCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Publish sends ev as JSON on subject, carrying the trace context of ctx.
func Publish(ctx context.Context, nc *nats.Conn, subject string, ev models.StorageEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	return nc.PublishMsg(msg)
}

// Subscribe decodes storage events from subject and passes them to handler.
// With a non-empty queue, instances share the work. NATS calls the handler
// serially for a subscription. Malformed messages are logged and dropped.
func Subscribe(nc *nats.Conn, subject, queue string, handler Handler) (*nats.Subscription, error) {
	cb := func(msg *nats.Msg) {
		var ev models.StorageEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("Dropping malformed storage event")
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
		handler(ctx, ev)
	}
	if queue != "" {
		return nc.QueueSubscribe(subject, queue, cb)
	}
	return nc.Subscribe(subject, cb)
}
