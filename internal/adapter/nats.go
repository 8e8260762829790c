package adapter

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsConn defines an interface for NATS connection operations
type NatsConn interface {
	// Close closes the connection
	Close()
	// IsConnected returns true if the connection is active
	IsConnected() bool
}

// JetStream defines an interface for JetStream operations
type JetStream interface {
	// CreateOrUpdateStream creates or updates a stream
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	// CreateOrUpdateConsumer creates or updates a durable consumer on a stream
	CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (Consumer, error)
}

// Consumer defines an interface for JetStream consumer operations
type Consumer interface {
	// Consume starts consuming messages with the given handler
	Consume(handler func(msg Message)) (ConsumeContext, error)
}

// ConsumeContext defines an interface to control message consumption
type ConsumeContext interface {
	// Stop stops the consumption
	Stop()
}

// Message defines an interface for JetStream message operations
type Message interface {
	// Data returns the message payload
	Data() []byte
	// Subject returns the subject of the message
	Subject() string
	// Ack acknowledges the message
	Ack() error
	// Nak negatively acknowledges the message with a delay
	Nak(delay time.Duration) error
	// Term terminates the message so it is never redelivered
	Term() error
	// Metadata returns the message metadata
	Metadata() (*jetstream.MsgMetadata, error)
}

// NatsJetStream combines NATS connection and JetStream interfaces
type NatsJetStream interface {
	NatsConn
	JetStream
}

// RealNatsJetStream wraps an actual NATS connection and JetStream context
type RealNatsJetStream struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewNatsJetStream connects to a NATS server and returns a NatsJetStream.
// A negative maxReconnects retries forever.
func NewNatsJetStream(url string, maxReconnects int, reconnectWait time.Duration) (NatsJetStream, error) {
	conn, err := nats.Connect(url,
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
	)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &RealNatsJetStream{conn: conn, js: js}, nil
}

func (n *RealNatsJetStream) Close() {
	n.conn.Close()
}

func (n *RealNatsJetStream) IsConnected() bool {
	return n.conn.IsConnected()
}

func (n *RealNatsJetStream) CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	return n.js.CreateOrUpdateStream(ctx, cfg)
}

func (n *RealNatsJetStream) CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (Consumer, error) {
	consumer, err := n.js.CreateOrUpdateConsumer(ctx, stream, cfg)
	if err != nil {
		return nil, err
	}
	return &realConsumer{consumer: consumer}, nil
}

type realConsumer struct {
	consumer jetstream.Consumer
}

func (c *realConsumer) Consume(handler func(msg Message)) (ConsumeContext, error) {
	cc, err := c.consumer.Consume(func(msg jetstream.Msg) {
		handler(&realMessage{msg: msg})
	})
	if err != nil {
		return nil, err
	}
	return &realConsumeContext{cc: cc}, nil
}

type realConsumeContext struct {
	cc jetstream.ConsumeContext
}

func (c *realConsumeContext) Stop() {
	c.cc.Stop()
}

type realMessage struct {
	msg jetstream.Msg
}

func (m *realMessage) Data() []byte {
	return m.msg.Data()
}

func (m *realMessage) Subject() string {
	return m.msg.Subject()
}

func (m *realMessage) Ack() error {
	return m.msg.Ack()
}

func (m *realMessage) Nak(delay time.Duration) error {
	return m.msg.NakWithDelay(delay)
}

func (m *realMessage) Term() error {
	return m.msg.Term()
}

func (m *realMessage) Metadata() (*jetstream.MsgMetadata, error) {
	return m.msg.Metadata()
}
