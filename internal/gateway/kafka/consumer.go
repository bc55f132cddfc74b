package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/tekig/thumbnail-sync/internal/entity"
	"github.com/tekig/thumbnail-sync/internal/thumbnail"
)

const (
	readTimeout  = 100 * time.Millisecond
	flushTimeout = 5000

	defaultMaxAttempts = 5
	defaultBackoff     = time.Second
	maxBackoff         = 30 * time.Second

	eventPrefixCreated = "s3:ObjectCreated:"
	eventPrefixRemoved = "s3:ObjectRemoved:"

	headerError = "thumbnail-sync-error"
)

type reader interface {
	Subscribe(topic string, rebalanceCb kafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	Seek(partition kafka.TopicPartition, ignoredTimeoutMs int) error
	CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Close() error
}

type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

type applier interface {
	Changes(ctx context.Context, changes []entity.Change) error
}

type offsetKey struct {
	topic     string
	partition int32
	offset    kafka.Offset
}

// Consumer reads S3 compatible bucket notifications (MinIO publishes these
// to Kafka) and keeps thumbnails in sync. Offsets are committed only after
// the changes of a message are applied or the message is given up on.
// A failed message is read again after a backoff, up to MaxAttempts times,
// and then goes to the dead letter topic when one is configured.
type Consumer struct {
	consumer        reader
	deadLetter      producer
	topic           string
	deadLetterTopic string
	changes         applier
	maxAttempts     int
	backoff         time.Duration
	logger          *slog.Logger

	attempts map[offsetKey]int

	done     chan struct{}
	closed   chan struct{}
	stopOnce sync.Once
}

type Config struct {
	Brokers string
	Topic   string
	GroupID string
	// DeadLetterTopic receives messages that still fail after MaxAttempts.
	// Empty drops them.
	DeadLetterTopic string
	MaxAttempts     int
	Backoff         time.Duration
	Thumbnail       *thumbnail.Service
	Logger          *slog.Logger
}

func New(c Config) (*Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  c.Brokers,
		"group.id":           c.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("new consumer: %w", err)
	}

	var deadLetter producer
	if c.DeadLetterTopic != "" {
		p, err := kafka.NewProducer(&kafka.ConfigMap{
			"bootstrap.servers": c.Brokers,
			"acks":              "all",
		})
		if err != nil {
			consumer.Close()
			return nil, fmt.Errorf("new producer: %w", err)
		}

		deadLetter = p
	}

	return newConsumer(consumer, deadLetter, c.Thumbnail, c), nil
}

func newConsumer(r reader, deadLetter producer, changes applier, c Config) *Consumer {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	return &Consumer{
		consumer:        r,
		deadLetter:      deadLetter,
		topic:           c.Topic,
		deadLetterTopic: c.DeadLetterTopic,
		changes:         changes,
		maxAttempts:     maxAttempts,
		backoff:         backoff,
		logger:          logger,
		attempts:        make(map[offsetKey]int),
		done:            make(chan struct{}),
		closed:          make(chan struct{}),
	}
}

// Run consumes until Shutdown is called or the client reports a fatal
// error. The client is closed before Run returns.
func (c *Consumer) Run() error {
	defer close(c.closed)

	err := c.consume()
	if cerr := c.close(); cerr != nil && err == nil {
		err = cerr
	}

	return err
}

func (c *Consumer) consume() error {
	if err := c.consumer.Subscribe(c.topic, nil); err != nil {
		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}

	c.logger.Info("bucket notification consumer started", slog.String("topic", c.topic))

	for {
		select {
		case <-c.done:
			return nil
		default:
		}

		msg, err := c.consumer.ReadMessage(readTimeout)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) {
				if kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kerr.IsFatal() {
					return fmt.Errorf("read message: %w", err)
				}
			}

			c.logger.Error("read message", slog.String("error", err.Error()))
			continue
		}

		c.process(msg)
	}
}

func (c *Consumer) close() error {
	if c.deadLetter != nil {
		c.deadLetter.Flush(flushTimeout)
		c.deadLetter.Close()
	}

	if err := c.consumer.Close(); err != nil {
		return fmt.Errorf("close consumer: %w", err)
	}

	return nil
}

// Shutdown stops the read loop and waits until Run has closed the client,
// so the consumer leaves its group before the process exits.
func (c *Consumer) Shutdown() error {
	c.stopOnce.Do(func() {
		close(c.done)
	})

	<-c.closed

	return nil
}

func (c *Consumer) process(msg *kafka.Message) {
	changes, err := parseRecords(msg.Value)
	if err != nil {
		// Redelivery would fail the same way.
		c.logger.Warn("malformed notification, skipping", slog.String("error", err.Error()))
		c.commit(msg)
		return
	}

	key := keyOf(msg.TopicPartition)

	if err := c.changes.Changes(context.Background(), changes); err != nil {
		c.attempts[key]++
		attempts := c.attempts[key]

		logger := c.logger.With(
			slog.Any("offset", msg.TopicPartition.Offset),
			slog.Int("attempts", attempts),
		)
		logger.Error("apply changes", slog.String("error", err.Error()))

		if attempts >= c.maxAttempts {
			if err := c.giveUp(msg, err); err != nil {
				logger.Error("dead letter", slog.String("error", err.Error()))
			} else {
				delete(c.attempts, key)
				c.commit(msg)
				return
			}
		}

		if !c.wait(backoffFor(c.backoff, attempts)) {
			return
		}

		if err := c.consumer.Seek(msg.TopicPartition, 0); err != nil {
			logger.Error("seek", slog.String("error", err.Error()))
		}

		return
	}

	delete(c.attempts, key)
	c.commit(msg)
}

// giveUp forwards msg to the dead letter topic and waits for the delivery
// report. Without a dead letter topic the message is dropped.
func (c *Consumer) giveUp(msg *kafka.Message, cause error) error {
	if c.deadLetter == nil {
		c.logger.Error(
			"giving up on notification",
			slog.Any("offset", msg.TopicPartition.Offset),
			slog.String("error", cause.Error()),
		)
		return nil
	}

	deliveryChan := make(chan kafka.Event, 1)
	if err := c.deadLetter.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &c.deadLetterTopic,
			Partition: kafka.PartitionAny,
		},
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(slices.Clone(msg.Headers), kafka.Header{
			Key:   headerError,
			Value: []byte(cause.Error()),
		}),
	}, deliveryChan); err != nil {
		return fmt.Errorf("produce: %w", err)
	}

	if m, ok := (<-deliveryChan).(*kafka.Message); ok && m.TopicPartition.Error != nil {
		return fmt.Errorf("delivery: %w", m.TopicPartition.Error)
	}

	c.logger.Warn(
		"notification moved to dead letter topic",
		slog.String("topic", c.deadLetterTopic),
		slog.Any("offset", msg.TopicPartition.Offset),
	)

	return nil
}

// wait sleeps for d and reports false when Shutdown interrupts it.
func (c *Consumer) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-c.done:
		return false
	}
}

func (c *Consumer) commit(msg *kafka.Message) {
	if _, err := c.consumer.CommitMessage(msg); err != nil {
		c.logger.Error("commit message", slog.String("error", err.Error()))
	}
}

// backoffFor doubles base for every attempt after the first, up to
// maxBackoff.
func backoffFor(base time.Duration, attempts int) time.Duration {
	d := base
	for i := 1; i < attempts && d < maxBackoff; i++ {
		d *= 2
	}

	return min(d, maxBackoff)
}

func keyOf(tp kafka.TopicPartition) offsetKey {
	var topic string
	if tp.Topic != nil {
		topic = *tp.Topic
	}

	return offsetKey{
		topic:     topic,
		partition: tp.Partition,
		offset:    tp.Offset,
	}
}

type notification struct {
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

func parseRecords(value []byte) ([]entity.Change, error) {
	var n notification
	if err := json.Unmarshal(value, &n); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	changes := make([]entity.Change, 0, len(n.Records))
	for _, rec := range n.Records {
		var changeType entity.ChangeType
		switch {
		case strings.HasPrefix(rec.EventName, eventPrefixCreated):
			changeType = entity.ChangeTypeObjectCreate
		case strings.HasPrefix(rec.EventName, eventPrefixRemoved):
			changeType = entity.ChangeTypeObjectDelete
		default:
			continue
		}

		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("unescape key %s: %w", rec.S3.Object.Key, err)
		}

		changes = append(changes, entity.Change{
			Container: rec.S3.Bucket.Name,
			Name:      key,
			Type:      changeType,
		})
	}

	return changes, nil
}
