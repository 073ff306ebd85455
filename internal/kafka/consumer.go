package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// ErrConsumerRunning is returned by Start on a consumer already started.
var ErrConsumerRunning = errors.New("consumer is already running")

// Consumer reads analytics events and feeds them to an EventProcessor.
type Consumer struct {
	reader        *kafka.Reader
	processor     *EventProcessor
	flushInterval time.Duration
	stopChan      chan struct{}
	wg            sync.WaitGroup
	isRunning     bool
	mu            sync.RWMutex
	stats         ConsumerStats
}

type ConsumerStats struct {
	MessagesProcessed int64         `json:"messages_processed"`
	MessagesErrored   int64         `json:"messages_errored"`
	LastMessageTime   time.Time     `json:"last_message_time"`
	LastErrorTime     time.Time     `json:"last_error_time"`
	LastError         string        `json:"last_error"`
	StartTime         time.Time     `json:"start_time"`
	Uptime            time.Duration `json:"uptime"`
}

type ConsumerConfig struct {
	Brokers        []string      `json:"brokers"`
	Topic          string        `json:"topic"`
	GroupID        string        `json:"group_id"`
	MinBytes       int           `json:"min_bytes"`
	MaxBytes       int           `json:"max_bytes"`
	MaxWait        time.Duration `json:"max_wait"`
	StartOffset    int64         `json:"start_offset"`
	CommitInterval time.Duration `json:"commit_interval"`
	FlushInterval  time.Duration `json:"flush_interval"`
}

func DefaultConsumerConfig(brokers []string, topic string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        "search-analytics",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: 1 * time.Second,
		FlushInterval:  5 * time.Minute,
	}
}

func NewConsumer(config ConsumerConfig, processor *EventProcessor) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       config.MinBytes,
		MaxBytes:       config.MaxBytes,
		MaxWait:        config.MaxWait,
		StartOffset:    config.StartOffset,
		CommitInterval: config.CommitInterval,
		ErrorLogger:    kafka.LoggerFunc(log.Printf),
	})

	return &Consumer{
		reader:        reader,
		processor:     processor,
		flushInterval: config.FlushInterval,
		stopChan:      make(chan struct{}),
		stats:         ConsumerStats{StartTime: time.Now()},
	}
}

// Start launches the read loop and the periodic metrics flush.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return ErrConsumerRunning
	}
	c.isRunning = true
	c.mu.Unlock()

	log.Info().Str("topic", c.reader.Config().Topic).Msg("Starting Kafka consumer")

	c.wg.Add(2)
	go c.processMessages(ctx)
	go c.flushPeriodically(ctx)
	return nil
}

// Stop waits for the loops to exit, closes the reader and flushes the
// last metrics window.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	close(c.stopChan)
	// unblocks a pending ReadMessage
	readerErr := c.reader.Close()
	c.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	flushErr := c.processor.Aggregator().Flush(ctx)

	if readerErr != nil {
		readerErr = fmt.Errorf("failed to close reader: %w", readerErr)
	}
	return errors.Join(readerErr, flushErr)
}

func (c *Consumer) GetStats() ConsumerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Uptime = time.Since(stats.StartTime)
	return stats
}

func (c *Consumer) Processor() *EventProcessor {
	return c.processor
}

func (c *Consumer) processMessages(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		default:
		}

		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			c.updateStats(err)
			log.Error().Err(err).Msg("Error reading message")
			continue
		}

		if err := c.processor.ProcessMessage(message.Value); err != nil {
			c.updateStats(err)
			log.Error().Err(err).Str("key", string(message.Key)).Msg("Error processing message")
			continue
		}
		c.updateStats(nil)
	}
}

func (c *Consumer) flushPeriodically(ctx context.Context) {
	defer c.wg.Done()

	interval := c.flushInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			if err := c.processor.Aggregator().Flush(ctx); err != nil {
				log.Error().Err(err).Msg("Error flushing search metrics")
			}
			stats := c.GetStats()
			log.Info().
				Int64("processed", stats.MessagesProcessed).
				Int64("errored", stats.MessagesErrored).
				Dur("uptime", stats.Uptime.Round(time.Second)).
				Msg("Consumer statistics")
		}
	}
}

func (c *Consumer) updateStats(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.stats.MessagesProcessed++
		c.stats.LastMessageTime = time.Now()
		return
	}
	c.stats.MessagesErrored++
	c.stats.LastErrorTime = time.Now()
	c.stats.LastError = err.Error()
}

// EventProcessor decodes events and routes them to the aggregator.
type EventProcessor struct {
	aggregator *MetricsAggregator
}

func NewEventProcessor(aggregator *MetricsAggregator) *EventProcessor {
	return &EventProcessor{aggregator: aggregator}
}

func (ep *EventProcessor) Aggregator() *MetricsAggregator {
	return ep.aggregator
}

// ProcessMessage handles one encoded event. Unknown event types are
// logged and skipped.
func (ep *EventProcessor) ProcessMessage(data []byte) error {
	var base BaseEvent
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("failed to parse base event: %w", err)
	}

	switch base.EventType {
	case EventGameStarted:
		var event GameStartedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return err
		}
		log.Debug().Str("game_id", event.GameID).Str("mode", event.GameMode).Msg("Game started")
		ep.aggregator.RecordGameStart(event)
	case EventMovePlayed:
		var event MovePlayedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return err
		}
		ep.aggregator.RecordMove(event)
	case EventSearchCompleted:
		var event SearchCompletedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return err
		}
		ep.aggregator.RecordSearch(event.Search)
	case EventGameEnded:
		var event GameEndedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return err
		}
		log.Debug().Str("game_id", event.GameID).Str("reason", event.EndReason).Msg("Game ended")
		ep.aggregator.RecordGameEnd(event)
	default:
		log.Warn().Str("event_type", string(base.EventType)).Msg("Unknown event type")
	}
	return nil
}
