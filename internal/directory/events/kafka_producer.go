package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/directory/internal/directory/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	CompanyViewed    EventType = "company_viewed"
	DirectoryChanged EventType = "directory_changed"
)

// Event is the message published on the directory topic.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Company    *models.Company `json:"company,omitempty"`
	// Source is the data file for directory_changed events.
	Source string `json:"source,omitempty"`
	// Op is the filesystem operation behind a directory_changed event.
	Op string `json:"op,omitempty"`
}

// Key partitions company events by company and change events by file.
func (e Event) Key() string {
	if e.Company != nil {
		return strconv.FormatInt(e.Company.ID, 10)
	}
	return e.Source
}

// NewCompanyViewed builds the event published after a successful lookup.
func NewCompanyViewed(company *models.Company) Event {
	return Event{ID: uuid.New(), Type: CompanyViewed, OccurredAt: time.Now().UTC(), Company: company}
}

// NewDirectoryChanged builds the event published when the data file changes.
func NewDirectoryChanged(source, op string) Event {
	return Event{ID: uuid.New(), Type: DirectoryChanged, OccurredAt: time.Now().UTC(), Source: source, Op: op}
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	doneChan  chan struct{}
}

// NewProducer starts a producer writing to topic. Events are queued and sent
// by a single background loop; a full queue drops events with a warning.
func NewProducer(brokers []string, logger *zap.Logger, topic string) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		Topic:                  topic,
		AllowAutoTopicCreation: true,
	}, logger, 1000)
}

func newProducer(w KafkaWriter, logger *zap.Logger, queue int) *Producer {
	p := &Producer{
		writer:    w,
		events:    make(chan Event, queue),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// EnsureTopic creates topic on the first reachable broker, retrying with
// exponential backoff until ctx ends or maxElapsed passes. An existing topic
// is not an error.
func EnsureTopic(ctx context.Context, brokers []string, topic string, maxElapsed time.Duration, logger *zap.Logger) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed

	return backoff.Retry(func() error {
		conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			logger.Warn("kafka not reachable yet", zap.String("broker", brokers[0]), zap.Error(err))
			return err
		}
		defer conn.Close()

		err = conn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		})
		if err != nil {
			logger.Warn("failed to create topic (may already exist)", zap.String("topic", topic), zap.Error(err))
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

func (p *Producer) Produce(event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("key", event.Key()),
		)
	}
}

func (p *Producer) eventLoop() {
	defer close(p.doneChan)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			// flush what was queued before Close
			for {
				select {
				case event := <-p.events:
					p.sendEvent(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("event_id", event.ID.String()),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID.String()),
		)
		return
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	<-p.doneChan
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}

// NopProducer discards events. It is used when no brokers are configured.
type NopProducer struct{}

func (NopProducer) Produce(Event) {}

func (NopProducer) Close() {}
