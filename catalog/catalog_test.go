package catalog

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"restoflow-api/config"
	"restoflow-api/feed"
	"restoflow-api/models"
	"restoflow-api/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestCatalog(t *testing.T, broker feed.Broker) (*Catalog, *store.MenuRepo) {
	t.Helper()
	db, err := config.OpenDB(&config.Config{DBDriver: "sqlite", DatabaseDSN: ":memory:"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	repo := store.NewMenuRepo(db, broker)
	var sub Subscriber
	if broker != nil {
		sub = broker
	}
	return New(repo, sub, 0), repo
}

func seeded(t *testing.T) *Catalog {
	t.Helper()
	c, _ := newTestCatalog(t, nil)
	n, err := c.Seed(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, n)
	return c
}

func names(items []models.MenuItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

// stalledRemote reads the menu, then holds the result until release is
// closed. Only the first List call stalls.
type stalledRemote struct {
	Remote
	armed   atomic.Bool
	started chan struct{}
	release chan struct{}
}

func (r *stalledRemote) List(ctx context.Context) ([]models.MenuItem, error) {
	items, err := r.Remote.List(ctx)
	if r.armed.CompareAndSwap(true, false) {
		close(r.started)
		<-r.release
	}
	return items, err
}

func TestStarterMenu(t *testing.T) {
	items, err := StarterMenu()
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, "Classic Burger", items[0].Name)
	assert.Equal(t, int64(50000), items[0].Price)
	assert.Equal(t, "Main", items[0].Category)
	assert.True(t, items[0].IsAvailable)
	assert.NotEmpty(t, items[5].ImageURL)
}

func TestSeedRefusesNonEmptyMenu(t *testing.T) {
	c := seeded(t)
	n, err := c.Seed(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySeeded)
	assert.Zero(t, n)
	assert.Len(t, c.List(""), 6)
}

func TestListFiltersByCategory(t *testing.T) {
	c := seeded(t)

	assert.Len(t, c.List(AllCategories), 6)
	assert.Equal(t, []string{"Soda", "Chocolate Milkshake"}, names(c.List("Drink")))
	assert.Empty(t, c.List("Dessert"))
	assert.Equal(t, []string{"All", "Main", "Appetizer", "Side", "Drink"}, c.Categories())
}

func TestAddRejectsNegativePrice(t *testing.T) {
	c, _ := newTestCatalog(t, nil)
	ctx := context.Background()

	_, err := c.Add(ctx, models.MenuItem{Name: "Free Water", Price: -1})
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = c.Add(ctx, models.MenuItem{Name: "   ", Price: 1000})
	assert.ErrorIs(t, err, ErrNameRequired)

	item, err := c.Add(ctx, models.MenuItem{Name: " Iced Tea ", Price: 12000, Category: "Drink", IsAvailable: true})
	require.NoError(t, err)
	assert.Equal(t, "Iced Tea", item.Name)

	cached, ok := c.Get(item.ID)
	require.True(t, ok)
	assert.Equal(t, int64(12000), cached.Price)
}

func TestUpdateIsPartial(t *testing.T) {
	c := seeded(t)
	ctx := context.Background()
	burger := c.List("Main")[0]

	price := int64(55000)
	require.NoError(t, c.Update(ctx, burger.ID, models.MenuItemPatch{Price: &price}))

	got, ok := c.Get(burger.ID)
	require.True(t, ok)
	assert.Equal(t, int64(55000), got.Price)
	assert.Equal(t, burger.Name, got.Name)
	assert.Equal(t, burger.Category, got.Category)

	negative := int64(-5)
	assert.ErrorIs(t, c.Update(ctx, burger.ID, models.MenuItemPatch{Price: &negative}), ErrInvalidPrice)
	assert.ErrorIs(t, c.Update(ctx, 999, models.MenuItemPatch{Price: &price}), ErrItemNotFound)
}

func TestDelete(t *testing.T) {
	c := seeded(t)
	ctx := context.Background()
	soda := c.List("Drink")[0]

	require.NoError(t, c.Delete(ctx, soda.ID))
	_, ok := c.Get(soda.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, c.Delete(ctx, soda.ID), ErrItemNotFound)
}

func TestReorder(t *testing.T) {
	c := seeded(t)
	items := c.List("")
	reversed := make([]uint, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		reversed = append(reversed, items[i].ID)
	}

	require.NoError(t, c.Reorder(context.Background(), reversed))
	assert.Equal(t, "Chocolate Milkshake", c.List("")[0].Name)
	assert.Equal(t, "Classic Burger", c.List("")[5].Name)
}

func TestReorderReportsFailuresWithoutRollback(t *testing.T) {
	c := seeded(t)
	items := c.List("")
	last := items[len(items)-1]

	err := c.Reorder(context.Background(), []uint{last.ID, 404})
	require.Error(t, err)

	var rErr *ReorderError
	require.ErrorAs(t, err, &rErr)
	assert.Equal(t, []uint{404}, rErr.Failed)
	assert.False(t, rErr.All())
	assert.ErrorIs(t, err, ErrItemNotFound)

	assert.Equal(t, last.ID, c.List("")[0].ID, "successful update stays applied")

	err = c.Reorder(context.Background(), []uint{500, 501})
	require.ErrorAs(t, err, &rErr)
	assert.True(t, rErr.All())
}

func TestWriteIsVisibleWhileOlderReloadInFlight(t *testing.T) {
	c, repo := newTestCatalog(t, nil)
	remote := &stalledRemote{Remote: repo, started: make(chan struct{}), release: make(chan struct{})}
	remote.armed.Store(true)
	c.remote = remote
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Reload(ctx) }()
	<-remote.started

	created, err := c.Add(ctx, models.MenuItem{Name: "Es Teh", Price: 8000, Category: "Drink", IsAvailable: true})
	require.NoError(t, err)
	_, ok := c.Get(created.ID)
	assert.True(t, ok, "write is cached as soon as Add returns")

	close(remote.release)
	require.NoError(t, <-done)
	_, ok = c.Get(created.ID)
	assert.True(t, ok, "the older fetch must not overwrite the write")
	assert.Len(t, c.List(""), 1)
}

func TestRunReloadsOnMenuEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := feed.NewHub()
	c, repo := newTestCatalog(t, hub)
	go c.Run(ctx)
	require.Eventually(t, func() bool { return c.Loaded() && hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	// another station writes straight to the store
	_, err := repo.Create(ctx, models.MenuItem{Name: "Iced Tea", Price: 12000, IsAvailable: true})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(c.List("")) == 1 }, time.Second, 5*time.Millisecond)
}

func TestExportXLSX(t *testing.T) {
	c := seeded(t)

	var buf bytes.Buffer
	require.NoError(t, c.ExportXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"ID", "Name", "Category", "Price", "Available", "Position"}, rows[0])
	assert.Equal(t, "Classic Burger", rows[1][1])
	assert.Equal(t, "50000", rows[1][3])
	assert.Equal(t, "yes", rows[1][4])
}
