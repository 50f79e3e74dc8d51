// Package events publishes change notifications so that open back-office
// views can refetch. Delivery is best effort: callers log publish failures
// and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types, also used as Redis channel names.
const (
	RecordChanged    = "EVENT_RECORD_CHANGED"
	ApplicationMoved = "EVENT_APPLICATION_MOVED"
)

// Write operations carried by RecordChanged.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event is the JSON envelope published on every channel.
type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Change is the payload of a RecordChanged event.
type Change struct {
	Table string `json:"table"`
	ID    string `json:"id"`
	Op    string `json:"op"`
}

// Move is the payload of an ApplicationMoved event.
type Move struct {
	ApplicationID string `json:"applicationId"`
	CandidatID    string `json:"candidatId"`
	MandatID      string `json:"mandatId"`
	From          string `json:"from"`
	To            string `json:"to"`
}

// Make builds an Event of type typ around data.
func Make(reqID, typ string, data any) (Event, error) {
	e := Event{Type: typ, Version: 1, At: time.Now().UTC(), RequestID: reqID}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return e, fmt.Errorf("encode %s: %w", typ, err)
		}
		e.Data = raw
	}
	return e, nil
}

// Publisher sends events to whoever listens.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// RedisPublisher publishes each event as JSON on the channel named after its
// type.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher returns a RedisPublisher over rdb.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.rdb.Publish(ctx, e.Type, b).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Nop drops every event. It is used when Redis is not configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
