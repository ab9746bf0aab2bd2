// Package store is the authoritative copy of orders and menu items. Every
// successful write is announced on the change feed.
package store

import (
	"context"
	"errors"

	"restoflow-api/feed"
	"restoflow-api/logger"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrProcedureUnavailable means the dialect has no atomic reset
	ErrProcedureUnavailable = errors.New("reset procedure unavailable")
)

type base struct {
	db     *gorm.DB
	broker feed.Broker
}

// announce publishes ev; the write already happened, so a failed publish is
// only logged and the poll fallback picks the change up.
func (b base) announce(ctx context.Context, ev feed.Event) {
	if b.broker == nil {
		return
	}
	if err := b.broker.Publish(ctx, ev); err != nil {
		logger.Component("store").WithError(err).
			WithField("table", ev.Table).WithField("op", ev.Op).
			Warn("change event not published")
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
