// Package catalog serves the menu from a local cache that is reloaded after
// every successful write and whenever the change feed reports a menu edit.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"restoflow-api/feed"
	"restoflow-api/logger"
	"restoflow-api/models"
	"restoflow-api/store"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// AllCategories disables the category filter in List
const AllCategories = "All"

var (
	ErrItemNotFound  = errors.New("menu item not found")
	ErrInvalidPrice  = errors.New("price must not be negative")
	ErrNameRequired  = errors.New("name is required")
	ErrAlreadySeeded = errors.New("menu already has items")
)

// Remote is the authoritative menu store
type Remote interface {
	List(ctx context.Context) ([]models.MenuItem, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, item models.MenuItem) (models.MenuItem, error)
	CreateBatch(ctx context.Context, items []models.MenuItem) error
	Update(ctx context.Context, id uint, patch models.MenuItemPatch) error
	SetSortOrder(ctx context.Context, id uint, order int) error
	Delete(ctx context.Context, id uint) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, tables ...string) (<-chan feed.Event, error)
}

type Catalog struct {
	remote   Remote
	feed     Subscriber
	interval time.Duration
	log      *logrus.Entry

	mu     sync.RWMutex
	items  []models.MenuItem
	loaded bool
	gen    uint64 // bumped on every successful local write

	flight singleflight.Group
}

// New builds a catalog. sub may be nil; interval 0 disables polling.
func New(remote Remote, sub Subscriber, interval time.Duration) *Catalog {
	return &Catalog{
		remote:   remote,
		feed:     sub,
		interval: interval,
		log:      logger.Component("catalog"),
	}
}

// Reload fetches the menu. Concurrent calls share one fetch, and a fetch
// that started before a local write finished is discarded.
func (c *Catalog) Reload(ctx context.Context) error {
	_, err, _ := c.flight.Do("menu", func() (interface{}, error) {
		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		items, err := c.remote.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("reload menu: %w", err)
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			c.log.Debug("discarding menu reload that overlapped a local write")
			return nil, nil
		}
		c.items = items
		c.loaded = true
		return nil, nil
	})
	return err
}

// Run reloads on start, on every menu change event and on each poll tick
func (c *Catalog) Run(ctx context.Context) error {
	var events <-chan feed.Event
	if c.feed != nil {
		ch, err := c.feed.Subscribe(ctx, feed.TableMenuItems)
		if err != nil {
			return fmt.Errorf("subscribe to menu changes: %w", err)
		}
		events = ch
	}

	var tick <-chan time.Time
	if c.interval > 0 {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	c.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			c.refresh(ctx)
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.refresh(ctx)
		}
	}
}

func (c *Catalog) refresh(ctx context.Context) {
	if err := c.Reload(ctx); err != nil && ctx.Err() == nil {
		c.log.WithError(err).Warn("menu reload failed")
	}
}

// afterWrite reloads so the cache reflects the store's ordering and defaults.
// The write already succeeded, so a failed reload is only logged.
func (c *Catalog) afterWrite(ctx context.Context) {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
	// a fetch already in flight cannot contain this write
	c.flight.Forget("menu")
	if err := c.Reload(ctx); err != nil {
		c.log.WithError(err).Warn("menu reload after write failed")
	}
}

// List returns the cached menu in display order. An empty category or
// AllCategories returns everything.
func (c *Catalog) List(category string) []models.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.MenuItem, 0, len(c.items))
	for _, item := range c.items {
		if category == "" || category == AllCategories || item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

// Categories lists AllCategories followed by each distinct category in
// display order
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := map[string]bool{}
	cats := []string{AllCategories}
	for _, item := range c.items {
		if item.Category == "" || seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		cats = append(cats, item.Category)
	}
	return cats
}

func (c *Catalog) Get(id uint) (models.MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.MenuItem{}, false
}

func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Catalog) Add(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return models.MenuItem{}, ErrNameRequired
	}
	if item.Price < 0 {
		return models.MenuItem{}, ErrInvalidPrice
	}
	created, err := c.remote.Create(ctx, item)
	if err != nil {
		return models.MenuItem{}, err
	}
	c.afterWrite(ctx)
	c.log.WithFields(logrus.Fields{"item_id": created.ID, "name": created.Name}).Info("menu item added")
	return created, nil
}

// Update applies a partial edit. Price changes never touch placed orders,
// which carry their own line snapshots.
func (c *Catalog) Update(ctx context.Context, id uint, patch models.MenuItemPatch) error {
	if patch.Price != nil && *patch.Price < 0 {
		return ErrInvalidPrice
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return ErrNameRequired
		}
		patch.Name = &name
	}
	if err := c.remote.Update(ctx, id, patch); err != nil {
		return c.mapErr(err)
	}
	c.afterWrite(ctx)
	return nil
}

func (c *Catalog) Delete(ctx context.Context, id uint) error {
	if err := c.remote.Delete(ctx, id); err != nil {
		return c.mapErr(err)
	}
	c.afterWrite(ctx)
	return nil
}

// ReorderError lists the ids whose sort position could not be saved
type ReorderError struct {
	Failed []uint
	Total  int
	Err    error
}

func (e *ReorderError) Error() string {
	return fmt.Sprintf("reorder menu: %d of %d updates failed: %v", len(e.Failed), e.Total, e.Err)
}

func (e *ReorderError) Unwrap() error { return e.Err }

// All reports whether no update succeeded
func (e *ReorderError) All() bool { return len(e.Failed) == e.Total }

// Reorder stores each id's position in ids. Updates are independent; the
// ones that succeed stay applied even when others fail.
func (c *Catalog) Reorder(ctx context.Context, ids []uint) error {
	var (
		errs   []error
		failed []uint
	)
	for pos, id := range ids {
		if err := c.remote.SetSortOrder(ctx, id, pos); err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", id, c.mapErr(err)))
			failed = append(failed, id)
		}
	}
	if len(ids) > len(failed) {
		c.afterWrite(ctx)
	}
	if len(errs) == 0 {
		return nil
	}
	c.log.WithField("failed", failed).Warn("menu reorder partially failed")
	return &ReorderError{Failed: failed, Total: len(ids), Err: errors.Join(errs...)}
}

func (c *Catalog) mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrItemNotFound
	}
	return err
}
