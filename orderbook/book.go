// Package orderbook keeps a local copy of every order and reconciles it with
// the store. Reads are served from the cache; writes are applied to the
// cache first and undone if the store rejects them.
package orderbook

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"restoflow-api/feed"
	"restoflow-api/logger"
	"restoflow-api/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultPollInterval is the fallback refresh period when the feed is quiet
const DefaultPollInterval = 3 * time.Second

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrAlreadyRunning = errors.New("order book sync loop already running")
)

// Remote is the authoritative order store
type Remote interface {
	List(ctx context.Context) ([]models.Order, error)
	Create(ctx context.Context, order models.Order) (models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error
	Delete(ctx context.Context, id uint) error
	DeleteByStatus(ctx context.Context, status models.OrderStatus) (int64, error)
	Reset(ctx context.Context) error
}

// Subscriber delivers change notifications
type Subscriber interface {
	Subscribe(ctx context.Context, tables ...string) (<-chan feed.Event, error)
}

// MutationError reports a store failure after the local change was undone
type MutationError struct {
	Op      string
	OrderID uint
	Err     error
}

func (e *MutationError) Error() string {
	if e.OrderID == 0 {
		return fmt.Sprintf("%s orders: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s order %d: %v", e.Op, e.OrderID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

type Book struct {
	remote   Remote
	feed     Subscriber
	interval time.Duration
	log      *logrus.Entry

	mu     sync.RWMutex
	orders []models.Order // created_at asc, id asc
	gen    uint64         // bumped on every local change
	loaded bool

	flight  singleflight.Group
	running atomic.Bool
}

type Option func(*Book)

// WithPollInterval overrides DefaultPollInterval
func WithPollInterval(d time.Duration) Option {
	return func(b *Book) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithFeed enables push invalidation; without it the book only polls
func WithFeed(s Subscriber) Option {
	return func(b *Book) { b.feed = s }
}

func New(remote Remote, opts ...Option) *Book {
	b := &Book{
		remote:   remote,
		interval: DefaultPollInterval,
		log:      logger.Component("orderbook"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Reload replaces the cache with the store's list. Concurrent calls share
// one fetch. A fetch that overlapped a local change is dropped so it cannot
// undo optimistic state; the next trigger picks the store state up.
func (b *Book) Reload(ctx context.Context) error {
	_, err, _ := b.flight.Do("orders", func() (interface{}, error) {
		b.mu.RLock()
		gen := b.gen
		b.mu.RUnlock()

		orders, err := b.remote.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("reload orders: %w", err)
		}
		sortOrders(orders)

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.gen != gen {
			b.log.Debug("discarding reload that overlapped a local change")
			return nil, nil
		}
		b.orders = orders
		b.loaded = true
		return nil, nil
	})
	return err
}

// Run keeps the cache fresh until ctx ends: one initial load, then a reload
// on every feed event and on every poll tick. Only one Run may be active.
func (b *Book) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer b.running.Store(false)

	var events <-chan feed.Event
	if b.feed != nil {
		ch, err := b.feed.Subscribe(ctx, feed.TableOrders)
		if err != nil {
			return fmt.Errorf("subscribe to order changes: %w", err)
		}
		events = ch
	}

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.refresh(ctx, "initial")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.refresh(ctx, "poll")
		case _, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				b.log.Warn("change feed closed, falling back to polling only")
				events = nil
				continue
			}
			b.refresh(ctx, "feed")
		}
	}
}

func (b *Book) refresh(ctx context.Context, trigger string) {
	if err := b.Reload(ctx); err != nil && ctx.Err() == nil {
		b.log.WithError(err).WithField("trigger", trigger).Warn("order reload failed")
	}
}

// Loaded reports whether at least one reload succeeded
func (b *Book) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// Place persists a new order and adds it to the cache
func (b *Book) Place(ctx context.Context, order models.Order) (models.Order, error) {
	created, err := b.remote.Create(ctx, order)
	if err != nil {
		return models.Order{}, fmt.Errorf("place order: %w", err)
	}

	b.mu.Lock()
	if b.indexOf(created.ID) < 0 {
		b.insertSorted(created.Clone())
		b.gen++
	}
	b.mu.Unlock()

	b.log.WithFields(logrus.Fields{"order_id": created.ID, "total": created.Total}).Info("order placed")
	return created, nil
}

func sortOrders(orders []models.Order) {
	slices.SortStableFunc(orders, compareOrders)
}

func compareOrders(a, b models.Order) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// indexOf and insertSorted expect b.mu held
func (b *Book) indexOf(id uint) int {
	return slices.IndexFunc(b.orders, func(o models.Order) bool { return o.ID == id })
}

func (b *Book) insertSorted(o models.Order) {
	i, _ := slices.BinarySearchFunc(b.orders, o, compareOrders)
	b.orders = slices.Insert(b.orders, i, o)
}
