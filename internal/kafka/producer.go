package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("producer is not running")

// Producer wraps an async kafka.Writer and keeps delivery statistics.
type Producer struct {
	writer    *kafka.Writer
	isRunning bool
	mu        sync.RWMutex
	stats     ProducerStats
}

type ProducerStats struct {
	MessagesSent    int64     `json:"messages_sent"`
	MessagesErrored int64     `json:"messages_errored"`
	LastMessageTime time.Time `json:"last_message_time"`
	LastErrorTime   time.Time `json:"last_error_time"`
	LastError       string    `json:"last_error"`
}

type ProducerConfig struct {
	Brokers         []string      `json:"brokers"`
	Topic           string        `json:"topic"`
	RequiredAcks    int           `json:"required_acks"`
	BatchSize       int           `json:"batch_size"`
	BatchTimeout    time.Duration `json:"batch_timeout"`
	MaxMessageBytes int           `json:"max_message_bytes"`
	Compression     string        `json:"compression"`
	Retries         int           `json:"retries"`
}

func DefaultProducerConfig(brokers []string, topic string) ProducerConfig {
	return ProducerConfig{
		Brokers:         brokers,
		Topic:           topic,
		RequiredAcks:    1,
		BatchSize:       100,
		BatchTimeout:    10 * time.Millisecond,
		MaxMessageBytes: 1000000,
		Compression:     "snappy",
		Retries:         3,
	}
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Snappy
	}
}

func NewProducer(config ProducerConfig) *Producer {
	producer := &Producer{isRunning: true}

	producer.writer = &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{}, // one partition per game key
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		Async:        true,
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		Compression:  compressionCodec(config.Compression),
		MaxAttempts:  config.Retries,
		BatchBytes:   int64(config.MaxMessageBytes),
		ErrorLogger:  kafka.LoggerFunc(log.Printf),
		Completion:   producer.completed,
	}

	return producer
}

// completed runs after each async batch is delivered or dropped.
func (p *Producer) completed(messages []kafka.Message, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if err != nil {
		p.stats.MessagesErrored += int64(len(messages))
		p.stats.LastErrorTime = now
		p.stats.LastError = err.Error()
		log.Error().Err(err).Int("messages", len(messages)).Msg("kafka delivery failed")
		return
	}
	p.stats.MessagesSent += int64(len(messages))
	p.stats.LastMessageTime = now
}

func (p *Producer) Close() error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	return p.writer.Close()
}

// SendMessage queues a message; delivery is reported through the stats.
func (p *Producer) SendMessage(key string, value []byte) error {
	p.mu.RLock()
	running := p.isRunning
	p.mu.RUnlock()
	if !running {
		return ErrProducerClosed
	}

	return p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *Producer) GetStats() ProducerStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}
