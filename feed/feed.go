// Package feed carries change notifications between the store and the
// in-process caches. Events are invalidation signals only: receivers reload
// the whole table instead of applying the payload.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	TableOrders    = "orders"
	TableMenuItems = "menu_items"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
	OpReset  Op = "RESET"
)

// Event names the row that changed
type Event struct {
	Table string `json:"table"`
	Op    Op     `json:"op"`
	ID    uint   `json:"id,omitempty"`
}

var ErrUnknownDriver = errors.New("unknown feed driver")

// Broker publishes events and hands out subscriptions. A subscription lives
// until its context ends; the channel is closed afterwards.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, tables ...string) (<-chan Event, error)
	Close() error
}

func encode(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}

func decode(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

// wants reports whether ev belongs to one of tables; no tables means all
func wants(tables []string, ev Event) bool {
	if len(tables) == 0 {
		return true
	}
	for _, t := range tables {
		if t == ev.Table {
			return true
		}
	}
	return false
}
