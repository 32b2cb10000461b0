package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Event is a message with a partition key
type Event interface {
	Key() string
}

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close()
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	Brokers      []string
	ClientID     string
	Linger       time.Duration
	ProduceRetry int
}

// Producer publishes JSON-encoded events with franz-go
type Producer struct {
	client *kgo.Client
}

// NewProducer creates a producer and verifies broker connectivity
func NewProducer(ctx context.Context, cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(cfg.Linger),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.ProduceRetry > 0 {
		opts = append(opts, kgo.RecordRetries(cfg.ProduceRetry))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: failed to create client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka: brokers unreachable: %w", err)
	}

	return &Producer{client: client}, nil
}

// Publish encodes event as JSON and waits for the broker acknowledgement
func (p *Producer) Publish(ctx context.Context, topic string, event Event) error {
	record, err := NewRecord(topic, event)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka: publish to %s failed: %w", topic, err)
	}
	return nil
}

// Close flushes buffered records and closes the client
func (p *Producer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}

// NewRecord builds the record published for event
func NewRecord(topic string, event Event) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("kafka: failed to encode event for %s: %w", topic, err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(event.Key()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}

// NoOpPublisher drops every event
type NoOpPublisher struct{}

// NewNoOpPublisher creates a publisher for deployments without Kafka
func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

func (NoOpPublisher) Publish(context.Context, string, Event) error { return nil }

func (NoOpPublisher) Close() {}

// Published is an event captured by MemoryPublisher
type Published struct {
	Topic string
	Key   string
	Event Event
}

// MemoryPublisher keeps events in memory, for tests and local runs
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Published
	err    error
}

// NewMemoryPublisher creates an empty in-memory publisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// FailWith makes subsequent Publish calls return err
func (m *MemoryPublisher) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MemoryPublisher) Publish(_ context.Context, topic string, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, Published{Topic: topic, Key: event.Key(), Event: event})
	return nil
}

func (m *MemoryPublisher) Close() {}

// Events returns a copy of the captured events
func (m *MemoryPublisher) Events() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Published, len(m.events))
	copy(out, m.events)
	return out
}
