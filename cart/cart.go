// Package cart holds the order being assembled at a till. Carts live only in
// memory and are owned by one session.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"restoflow-api/models"

	"github.com/google/uuid"
)

var (
	ErrLineNotFound    = errors.New("cart line not found")
	ErrNothingToSubmit = errors.New("cart is empty or customer name is blank")
	ErrSubmitInFlight  = errors.New("cart is already being submitted")
)

// Placer persists a submitted order
type Placer interface {
	Place(ctx context.Context, order models.Order) (models.Order, error)
}

type Cart struct {
	mu    sync.Mutex
	lines []models.CartLine
	newID func() string

	// CartIDs of the lines handed to an order that is not confirmed yet
	pending map[string]struct{}
}

func New() *Cart {
	return &Cart{newID: uuid.NewString}
}

// Add merges into an existing plain line of the same item, otherwise
// appends a new line. Lines with a note never absorb repeat taps, and
// neither do lines of an order still being submitted.
func (c *Cart) Add(item models.MenuItem) models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		l := &c.lines[i]
		if l.ItemID == item.ID && strings.TrimSpace(l.Note) == "" && !c.isPending(l.CartID) {
			l.Quantity++
			return *l
		}
	}
	line := models.CartLine{
		CartID:   c.newID(),
		ItemID:   item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Quantity: 1,
	}
	c.lines = append(c.lines, line)
	return line
}

// AddWithNote appends a fresh noted line. A blank note behaves like Add.
func (c *Cart) AddWithNote(item models.MenuItem, note string) models.CartLine {
	if strings.TrimSpace(note) == "" {
		return c.Add(item)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	line := models.CartLine{
		CartID:   c.newID(),
		ItemID:   item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Quantity: 1,
		Note:     note,
	}
	c.lines = append(c.lines, line)
	return line
}

func (c *Cart) Remove(cartID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(cartID)
	if i < 0 {
		return ErrLineNotFound
	}
	if c.isPending(cartID) {
		return ErrSubmitInFlight
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return nil
}

// ChangeQuantity never takes a line below 1; Remove deletes
func (c *Cart) ChangeQuantity(cartID string, delta int) (models.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(cartID)
	if i < 0 {
		return models.CartLine{}, ErrLineNotFound
	}
	if c.isPending(cartID) {
		return models.CartLine{}, ErrSubmitInFlight
	}
	c.lines[i].Quantity = max(1, c.lines[i].Quantity+delta)
	return c.lines[i], nil
}

// SetNote stores text as typed
func (c *Cart) SetNote(cartID, text string) (models.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(cartID)
	if i < 0 {
		return models.CartLine{}, ErrLineNotFound
	}
	if c.isPending(cartID) {
		return models.CartLine{}, ErrSubmitInFlight
	}
	c.lines[i].Note = text
	return c.lines[i], nil
}

func (c *Cart) isPending(cartID string) bool {
	_, ok := c.pending[cartID]
	return ok
}

func (c *Cart) index(cartID string) int {
	for i := range c.lines {
		if c.lines[i].CartID == cartID {
			return i
		}
	}
	return -1
}

// Lines returns a copy of the current lines
func (c *Cart) Lines() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartLine(nil), c.lines...)
}

func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, l := range c.lines {
		total += l.Price * int64(l.Quantity)
	}
	return total
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Clear empties the cart. Lines of an order in flight are kept.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.lines[:0]
	for _, l := range c.lines {
		if c.isPending(l.CartID) {
			kept = append(kept, l)
		}
	}
	c.lines = kept
}

// Submit snapshots the cart into an order and hands it to p. The cart is
// emptied only once p confirms; on failure it is kept for a retry. While p
// runs the submitted lines are frozen and a second Submit gets
// ErrSubmitInFlight.
func (c *Cart) Submit(ctx context.Context, p Placer, customerName, globalNote string) (models.Order, error) {
	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return models.Order{}, ErrSubmitInFlight
	}
	if len(c.lines) == 0 || strings.TrimSpace(customerName) == "" {
		c.mu.Unlock()
		return models.Order{}, ErrNothingToSubmit
	}
	snapshot := make([]models.CartLine, len(c.lines))
	copy(snapshot, c.lines)
	c.pending = make(map[string]struct{}, len(snapshot))
	for _, l := range snapshot {
		c.pending[l.CartID] = struct{}{}
	}
	c.mu.Unlock()

	items := make([]models.OrderLine, 0, len(snapshot))
	for _, l := range snapshot {
		items = append(items, l.Snapshot())
	}
	order := models.Order{
		CustomerName: strings.TrimSpace(customerName),
		GlobalNote:   globalNote,
		Items:        items,
		Total:        models.LinesTotal(items),
		Status:       models.StatusProcessing,
	}

	placed, err := p.Place(ctx, order)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		c.removePending()
	}
	c.pending = nil
	if err != nil {
		return models.Order{}, fmt.Errorf("submit order: %w", err)
	}
	return placed, nil
}

// removePending drops the lines that went into the order. Lines added
// while the order was in flight stay.
func (c *Cart) removePending() {
	kept := c.lines[:0]
	for _, l := range c.lines {
		if !c.isPending(l.CartID) {
			kept = append(kept, l)
		}
	}
	c.lines = kept
}
