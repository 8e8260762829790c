package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/openprint/marketplace-indexer/internal/adapter"
	"github.com/openprint/marketplace-indexer/internal/domain"
	"github.com/openprint/marketplace-indexer/internal/logger"
)

// Config holds the configuration for the event subscriber
type Config struct {
	StreamName   string
	Subject      string
	ConsumerName string
	AckWait      time.Duration
	MaxDeliver   int
	NakDelay     time.Duration
}

// Handler processes one marketplace event to completion
type Handler func(ctx context.Context, event *domain.Event) error

// Subscriber consumes marketplace events from JetStream in canonical
// block/transaction/log order and hands them to a handler one at a time
type Subscriber interface {
	// Run blocks consuming events until the context is cancelled
	Run(ctx context.Context, handler Handler) error
	// Close closes the underlying connection
	Close()
}

type subscriber struct {
	natsJS adapter.NatsJetStream
	json   adapter.JSON
	config Config
}

// NewSubscriber creates a new event subscriber
func NewSubscriber(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) Subscriber {
	return &subscriber{natsJS: natsJS, json: jsonAdapter, config: cfg}
}

// Run starts consuming events
func (s *subscriber) Run(ctx context.Context, handler Handler) error {
	logger.Info("starting event subscriber",
		zap.String("stream", s.config.StreamName),
		zap.String("consumer", s.config.ConsumerName))

	// Make sure the stream exists so a fresh environment can start consuming
	// before the emitter publishes anything
	if _, err := s.natsJS.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      s.config.StreamName,
		Subjects:  []string{s.config.Subject},
		Retention: jetstream.LimitsPolicy,
	}); err != nil {
		return fmt.Errorf("%w: failed to create/update stream: %s", domain.ErrSubscriptionFailed, err)
	}

	// MaxAckPending of one keeps a single event in flight so the projector
	// sees events strictly in stream order
	consumer, err := s.natsJS.CreateOrUpdateConsumer(ctx, s.config.StreamName, jetstream.ConsumerConfig{
		Durable:       s.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       s.config.AckWait,
		MaxDeliver:    s.config.MaxDeliver,
		FilterSubject: s.config.Subject,
		MaxAckPending: 1,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create/update consumer: %s", domain.ErrSubscriptionFailed, err)
	}

	cc, err := consumer.Consume(func(msg adapter.Message) {
		s.handleMessage(ctx, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to start consuming: %s", domain.ErrSubscriptionFailed, err)
	}
	defer cc.Stop()

	<-ctx.Done()
	logger.Info("shutting down event subscriber")
	return ctx.Err()
}

// Close closes the underlying NATS connection
func (s *subscriber) Close() {
	s.natsJS.Close()
}

// handleMessage processes a single message synchronously
func (s *subscriber) handleMessage(ctx context.Context, msg adapter.Message, handler Handler) {
	var event domain.Event
	if err := s.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error(err, zap.String("message", "failed to unmarshal event"), zap.String("subject", msg.Subject()))
		// Unparseable payloads will never succeed, drop them
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "failed to terminate message"))
		}
		return
	}

	if !event.Valid() {
		logger.Error(domain.ErrInvalidEvent,
			zap.String("kind", string(event.Kind)),
			zap.String("tx_hash", event.TxHash))
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "failed to terminate message"))
		}
		return
	}

	if metadata, err := msg.Metadata(); err == nil && metadata.NumDelivered > 1 {
		logger.Warn("redelivered event",
			zap.String("kind", string(event.Kind)),
			zap.String("tx_hash", event.TxHash),
			zap.Uint64("delivery_count", metadata.NumDelivered))
	}

	if err := handler(ctx, &event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "event handler failed"),
			zap.String("kind", string(event.Kind)),
			zap.String("tx_hash", event.TxHash),
			zap.Uint64("block_number", event.BlockNumber))
		if err := msg.Nak(s.config.NakDelay); err != nil {
			logger.Error(err, zap.String("message", "failed to nak message"))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "failed to ack message"))
	}
}
