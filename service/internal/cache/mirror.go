// internal/cache/mirror.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jason-s-yu/ludo/service/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Outbox is the delivery surface the mirror decorates.
type Outbox interface {
	Send(to string, msg models.Message)
	Broadcast(msg models.Message)
}

// Publisher is the subset of *redis.Client the mirror publishes through.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// EventRecord is one broadcast as published on the channel.
type EventRecord struct {
	SessionID string         `json:"session_id"`
	Index     int64          `json:"index"`
	Command   string         `json:"command"`
	Message   models.Message `json:"message"`
	Timestamp int64          `json:"timestamp"`
}

const (
	queueSize      = 256
	publishTimeout = 2 * time.Second
)

// Mirror forwards every call to the wrapped Outbox and also publishes
// broadcasts to a Redis channel for spectators in other processes. Direct
// sends stay private. Publishing happens on Run's goroutine; when the queue
// is full records are dropped rather than stalling the game.
type Mirror struct {
	next      Outbox
	pub       Publisher
	channel   string
	sessionID string
	log       *logrus.Entry

	index int64 // guarded by the caller's serialisation of Broadcast
	queue chan EventRecord
}

// NewMirror wraps next, publishing its broadcasts to channel through pub.
func NewMirror(next Outbox, pub Publisher, channel, sessionID string, log *logrus.Entry) *Mirror {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Mirror{
		next:      next,
		pub:       pub,
		channel:   channel,
		sessionID: sessionID,
		log:       log.WithFields(logrus.Fields{"component": "mirror", "channel": channel}),
		queue:     make(chan EventRecord, queueSize),
	}
}

func (m *Mirror) Send(to string, msg models.Message) {
	m.next.Send(to, msg)
}

func (m *Mirror) Broadcast(msg models.Message) {
	m.next.Broadcast(msg)
	m.index++
	rec := EventRecord{
		SessionID: m.sessionID,
		Index:     m.index,
		Command:   msg.Command,
		Message:   msg,
		Timestamp: time.Now().UnixMilli(),
	}
	select {
	case m.queue <- rec:
	default:
		m.log.WithField("command", msg.Command).Warn("mirror queue full, dropping event")
	}
}

// Run publishes queued records until ctx is done.
func (m *Mirror) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec := <-m.queue:
			if err := m.publish(ctx, rec); err != nil {
				m.log.WithError(err).WithField("index", rec.Index).Error("publish failed")
			}
		}
	}
}

func (m *Mirror) publish(ctx context.Context, rec EventRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return m.pub.Publish(ctx, m.channel, payload).Err()
}

// Connect opens and pings a Redis client for url.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
