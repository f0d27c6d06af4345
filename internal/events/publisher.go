package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/isuumo/internal/core/observability"
)

// Publisher hands events to an async Kafka producer. It never blocks the
// caller: when the queue is full the event is dropped. A nil *Publisher is a
// valid no-op.
type Publisher struct {
	topic    string
	instance string
	events   chan Event
	prod     sarama.AsyncProducer
	log      *slog.Logger
	stopped  chan struct{}
	errsDone chan struct{}
}

func NewPublisher(brokers []string, topic, instance string, queueSize int, log *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("events: create async producer: %w", err)
	}
	return NewPublisherWithProducer(prod, topic, instance, queueSize, log), nil
}

func NewPublisherWithProducer(prod sarama.AsyncProducer, topic, instance string, queueSize int, log *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{
		topic:    topic,
		instance: instance,
		events:   make(chan Event, queueSize),
		prod:     prod,
		log:      log,
		stopped:  make(chan struct{}),
		errsDone: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.log.Error("events: marshal", "type", ev.Type, "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.Type + ":" + strconv.FormatInt(ev.ID, 10)),
				Value: sarama.ByteEncoder(b),
			}
		}
	}()

	go func() {
		defer close(p.errsDone)
		for err := range p.prod.Errors() {
			if err != nil {
				observability.IncEventPublished(eventType(err.Msg), "error")
				p.log.Warn("events: producer error", "err", err.Err)
			}
		}
	}()

	return p
}

// Publish stamps ev with this instance and the current time and queues it.
func (p *Publisher) Publish(ev Event) {
	if p == nil {
		return
	}
	ev.Instance = p.instance
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	select {
	case p.events <- ev:
		observability.IncEventPublished(ev.Type, "queued")
	default:
		observability.IncEventPublished(ev.Type, "dropped")
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	close(p.events)
	<-p.stopped

	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("events: close producer: %w", err)
	}
	<-p.errsDone
	return nil
}

func eventType(msg *sarama.ProducerMessage) string {
	if msg == nil || msg.Value == nil {
		return "unknown"
	}
	b, err := msg.Value.Encode()
	if err != nil {
		return "unknown"
	}
	var ev struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(b, &ev) != nil || ev.Type == "" {
		return "unknown"
	}
	return ev.Type
}
