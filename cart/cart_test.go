package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"restoflow-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	burger = models.MenuItem{ID: 1, Name: "Classic Burger", Price: 50000, Category: "Main"}
	fries  = models.MenuItem{ID: 4, Name: "French Fries", Price: 25000, Category: "Side"}
)

type placerFunc func(ctx context.Context, o models.Order) (models.Order, error)

func (f placerFunc) Place(ctx context.Context, o models.Order) (models.Order, error) {
	return f(ctx, o)
}

func TestAddMergesPlainLines(t *testing.T) {
	c := New()
	c.Add(burger)
	c.Add(burger)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestNotedLineStaysSeparate(t *testing.T) {
	c := New()
	plain := c.Add(burger)
	merged := c.Add(burger)
	assert.Equal(t, plain.CartID, merged.CartID, "second tap merges before any note exists")

	// give the merged line a note, then tap twice more
	_, err := c.SetNote(plain.CartID, "no salt")
	require.NoError(t, err)
	c.Add(burger)
	c.Add(burger)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "no salt", lines[0].Note)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "", lines[1].Note)
	assert.Equal(t, 2, lines[1].Quantity)
}

func TestPlainNotedPlainYieldsTwoLines(t *testing.T) {
	c := New()
	plain := c.Add(burger)
	noted := c.AddWithNote(burger, "no salt")
	assert.NotEqual(t, plain.CartID, noted.CartID)
	again := c.Add(burger)
	assert.Equal(t, plain.CartID, again.CartID)

	lines := c.Lines()
	require.Len(t, lines, 2)
	byNote := map[string]int{}
	for _, l := range lines {
		byNote[l.Note] = l.Quantity
	}
	assert.Equal(t, map[string]int{"": 2, "no salt": 1}, byNote)
}

func TestAddWithBlankNoteMerges(t *testing.T) {
	c := New()
	c.Add(fries)
	c.AddWithNote(fries, " ")
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, 2, c.Lines()[0].Quantity)
}

func TestWhitespaceNoteCountsAsPlain(t *testing.T) {
	c := New()
	l := c.Add(burger)
	_, err := c.SetNote(l.CartID, "   ")
	require.NoError(t, err)

	c.Add(burger)
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "   ", lines[0].Note, "notes are stored verbatim")
}

func TestQuantityFloor(t *testing.T) {
	c := New()
	l := c.Add(burger)

	got, err := c.ChangeQuantity(l.CartID, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)

	got, err = c.ChangeQuantity(l.CartID, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)

	got, err = c.ChangeQuantity(l.CartID, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)

	_, err = c.ChangeQuantity("missing", 1)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestRemove(t *testing.T) {
	c := New()
	a := c.Add(burger)
	c.Add(fries)

	require.NoError(t, c.Remove(a.CartID))
	assert.Equal(t, 1, c.Len())
	assert.ErrorIs(t, c.Remove(a.CartID), ErrLineNotFound)
}

func TestSubmitComputesTotalAndClears(t *testing.T) {
	c := New()
	c.Add(burger)
	c.Add(burger)
	c.Add(fries)
	assert.Equal(t, int64(125000), c.Total())

	var got models.Order
	placed, err := c.Submit(context.Background(), placerFunc(func(_ context.Context, o models.Order) (models.Order, error) {
		got = o
		o.ID = 1
		return o, nil
	}), "  Ana ", "table 4")
	require.NoError(t, err)

	assert.Equal(t, uint(1), placed.ID)
	assert.Equal(t, int64(125000), got.Total)
	assert.Equal(t, "Ana", got.CustomerName)
	assert.Equal(t, "table 4", got.GlobalNote)
	assert.Equal(t, models.StatusProcessing, got.Status)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Zero(t, c.Len())
}

func TestSubmitSnapshotsByValue(t *testing.T) {
	c := New()
	l := c.Add(burger)

	var got models.Order
	_, err := c.Submit(context.Background(), placerFunc(func(_ context.Context, o models.Order) (models.Order, error) {
		got = o
		return o, nil
	}), "Ana", "")
	require.NoError(t, err)

	c.Add(burger)
	_, _ = c.SetNote(c.Lines()[0].CartID, "changed later")
	assert.Equal(t, "", got.Items[0].Note)
	assert.Equal(t, l.ItemID, got.Items[0].ItemID)
}

func TestSubmitPreconditions(t *testing.T) {
	called := false
	p := placerFunc(func(_ context.Context, o models.Order) (models.Order, error) {
		called = true
		return o, nil
	})

	c := New()
	_, err := c.Submit(context.Background(), p, "Ana", "")
	assert.ErrorIs(t, err, ErrNothingToSubmit)

	c.Add(burger)
	_, err = c.Submit(context.Background(), p, "   ", "")
	assert.ErrorIs(t, err, ErrNothingToSubmit)
	assert.False(t, called)
	assert.Equal(t, 1, c.Len())
}

func TestSubmitFailureKeepsCart(t *testing.T) {
	boom := errors.New("backend down")
	c := New()
	c.Add(burger)

	_, err := c.Submit(context.Background(), placerFunc(func(context.Context, models.Order) (models.Order, error) {
		return models.Order{}, boom
	}), "Ana", "")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, c.Len())
}

// blockingPlacer holds Place until release is closed
func blockingPlacer(started chan<- struct{}, release <-chan struct{}, placed *[]models.Order, mu *sync.Mutex) Placer {
	return placerFunc(func(_ context.Context, o models.Order) (models.Order, error) {
		started <- struct{}{}
		<-release
		mu.Lock()
		defer mu.Unlock()
		o.ID = uint(len(*placed) + 1)
		*placed = append(*placed, o)
		return o, nil
	})
}

func TestConcurrentSubmitPlacesOneOrder(t *testing.T) {
	c := New()
	c.Add(burger)

	var (
		mu      sync.Mutex
		placed  []models.Order
		started = make(chan struct{}, 2)
		release = make(chan struct{})
	)
	p := blockingPlacer(started, release, &placed, &mu)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), p, "Ana", "")
		done <- err
	}()
	<-started

	_, err := c.Submit(context.Background(), p, "Ana", "")
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, placed, 1)
	assert.Zero(t, c.Len())
}

func TestLinesFrozenWhileSubmitting(t *testing.T) {
	c := New()
	sent := c.Add(burger)

	var (
		mu      sync.Mutex
		placed  []models.Order
		started = make(chan struct{}, 1)
		release = make(chan struct{})
	)
	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), blockingPlacer(started, release, &placed, &mu), "Ana", "")
		done <- err
	}()
	<-started

	_, err := c.ChangeQuantity(sent.CartID, 1)
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	_, err = c.SetNote(sent.CartID, "no salt")
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.ErrorIs(t, c.Remove(sent.CartID), ErrSubmitInFlight)

	// a tap during the submit starts a new line instead of growing the sent one
	extra := c.Add(burger)
	assert.NotEqual(t, sent.CartID, extra.CartID)

	close(release)
	require.NoError(t, <-done)
	require.Len(t, placed, 1)
	assert.Equal(t, 1, placed[0].Items[0].Quantity)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, extra.CartID, lines[0].CartID)
	_, err = c.ChangeQuantity(extra.CartID, 1)
	assert.NoError(t, err)
}

func TestSubmitFailureUnfreezesLines(t *testing.T) {
	c := New()
	l := c.Add(burger)

	_, err := c.Submit(context.Background(), placerFunc(func(context.Context, models.Order) (models.Order, error) {
		return models.Order{}, errors.New("backend down")
	}), "Ana", "")
	require.Error(t, err)

	_, err = c.ChangeQuantity(l.CartID, 1)
	assert.NoError(t, err)
	_, err = c.Submit(context.Background(), placerFunc(func(_ context.Context, o models.Order) (models.Order, error) {
		return o, nil
	}), "Ana", "")
	assert.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := r.For("s1")
	assert.Same(t, a, r.For("s1"))
	assert.NotSame(t, a, r.For("s2"))
	assert.Equal(t, 2, r.Len())

	r.Drop("s1")
	assert.NotSame(t, a, r.For("s1"))
}
