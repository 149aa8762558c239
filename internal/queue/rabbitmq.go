package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sudamana23/NewsFlow-AI/internal/config"
	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

// ErrUnavailable signals that the broker cannot accept work right now.
// Callers are expected to degrade (drop-and-log), not crash.
var ErrUnavailable = errors.New("queue unavailable")

// Message is one claimed, not-yet-acknowledged stream entry.
type Message struct {
	ID      uint64
	Article domain.RawArticle
}

// Info is a diagnostics snapshot of the queue. Ready counts undelivered
// messages on the broker; Unacked counts messages this consumer has claimed
// but not yet acknowledged.
type Info struct {
	Enabled   bool   `json:"enabled"`
	QueueName string `json:"queue_name"`
	Ready     int    `json:"ready"`
	Unacked   int    `json:"unacked"`
	Consumers int    `json:"consumers"`
}

// Queue is a durable at-least-once stream between collection and processing,
// backed by RabbitMQ. There is a single logical consumer; a message stays
// claimable until acknowledged, so downstream processing must be idempotent.
//
// A Queue whose broker was unreachable at startup is disabled: Enqueue
// returns ErrUnavailable and Read returns nothing, so the host keeps running
// with the pipeline stage skipped.
type Queue struct {
	conn       *amqp.Connection
	pubMu      sync.Mutex
	pubCh      *amqp.Channel
	conCh      *amqp.Channel
	deliveries <-chan amqp.Delivery

	exchange   string
	routingKey string
	queueName  string
	readWait   time.Duration

	ackMu   sync.Mutex
	unacked map[uint64]struct{}

	seq    atomic.Uint64
	logger *slog.Logger
}

// New connects to the broker and declares the durable topology. Connection
// failure is not fatal: it is logged once and a disabled queue is returned.
func New(cfg config.RabbitMQConfig, logger *slog.Logger) *Queue {
	q := &Queue{
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		queueName:  cfg.QueueName,
		readWait:   cfg.ReadWait,
		logger:     logger,
	}

	if err := q.connect(cfg); err != nil {
		logger.Warn("rabbitmq unavailable, ingestion queue disabled", "error", err)
		q.conn = nil
		return q
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)
	return q
}

func (q *Queue) connect(cfg config.RabbitMQConfig) error {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}

	pubCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open publish channel: %w", err)
	}

	if err := pubCh.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	queue, err := pubCh.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := pubCh.QueueBind(queue.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("bind queue: %w", err)
	}

	conCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open consume channel: %w", err)
	}

	if err := conCh.Qos(cfg.Prefetch, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := conCh.Consume(queue.Name, "processor-1", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("start consumer: %w", err)
	}

	q.conn = conn
	q.pubCh = pubCh
	q.conCh = conCh
	q.deliveries = deliveries
	q.unacked = make(map[uint64]struct{})
	return nil
}

// Enabled reports whether the broker connection is live.
func (q *Queue) Enabled() bool {
	return q.conn != nil
}

// Enqueue appends one raw article to the stream and returns a
// strictly-increasing publish sequence number.
func (q *Queue) Enqueue(ctx context.Context, article domain.RawArticle) (uint64, error) {
	if !q.Enabled() {
		return 0, ErrUnavailable
	}

	body, err := Encode(article)
	if err != nil {
		return 0, fmt.Errorf("encode article: %w", err)
	}

	q.pubMu.Lock()
	defer q.pubMu.Unlock()

	err = q.pubCh.PublishWithContext(ctx,
		q.exchange,
		q.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	id := q.seq.Add(1)
	q.logger.Debug("enqueued article", "id", id, "url", article.URL)
	return id, nil
}

// Read claims up to max undelivered messages, waiting at most the configured
// bounded interval for the first one. Messages whose body cannot be decoded
// are rejected without requeue.
func (q *Queue) Read(ctx context.Context, max int) []Message {
	if !q.Enabled() || max <= 0 {
		return nil
	}

	timer := time.NewTimer(q.readWait)
	defer timer.Stop()

	var out []Message
	for len(out) < max {
		select {
		case <-ctx.Done():
			return out
		case <-timer.C:
			return out
		case d, ok := <-q.deliveries:
			if !ok {
				return out
			}
			article, err := Decode(d.Body)
			if err != nil {
				q.logger.Warn("dropping undecodable message", "tag", d.DeliveryTag, "error", err)
				_ = q.conCh.Nack(d.DeliveryTag, false, false)
				continue
			}
			q.ackMu.Lock()
			q.unacked[d.DeliveryTag] = struct{}{}
			q.ackMu.Unlock()
			out = append(out, Message{ID: d.DeliveryTag, Article: article})
		}
	}
	return out
}

// Ack removes a claimed message from the pending set. Call only after the
// article is durably persisted; an unacked message will be redelivered.
func (q *Queue) Ack(id uint64) error {
	if !q.Enabled() {
		return nil
	}
	if err := q.conCh.Ack(id, false); err != nil {
		return fmt.Errorf("ack message %d: %w", id, err)
	}
	q.ackMu.Lock()
	delete(q.unacked, id)
	q.ackMu.Unlock()
	return nil
}

// PendingCount reports how many claimed messages await acknowledgment.
// QueueInspect cannot see those, so the queue tracks its own claims.
func (q *Queue) PendingCount() int {
	q.ackMu.Lock()
	defer q.ackMu.Unlock()
	return len(q.unacked)
}

// Info returns a diagnostics snapshot. Inspection failures degrade to a
// zeroed snapshot rather than an error.
func (q *Queue) Info() Info {
	info := Info{QueueName: q.queueName}
	if !q.Enabled() {
		return info
	}
	info.Enabled = true

	q.pubMu.Lock()
	state, err := q.pubCh.QueueInspect(q.queueName)
	q.pubMu.Unlock()
	if err != nil {
		q.logger.Warn("queue inspect failed", "error", err)
		return info
	}

	info.Ready = state.Messages
	info.Unacked = q.PendingCount()
	info.Consumers = state.Consumers
	return info
}

// Close shuts the broker connection down. In-flight unacked messages return
// to the queue for redelivery.
func (q *Queue) Close() error {
	if !q.Enabled() {
		return nil
	}
	if q.conCh != nil {
		_ = q.conCh.Close()
	}
	if q.pubCh != nil {
		_ = q.pubCh.Close()
	}
	return q.conn.Close()
}
