package orderbook

import (
	"slices"

	"restoflow-api/models"
)

// Column is one Kanban bucket with its item tally
type Column struct {
	Status models.OrderStatus `json:"status"`
	Orders []models.Order     `json:"orders"`
	Items  map[string]int     `json:"items"`
}

func (b *Book) Get(id uint) (models.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := b.indexOf(id)
	if i < 0 {
		return models.Order{}, false
	}
	return b.orders[i].Clone(), true
}

// Orders returns every cached order, oldest first
func (b *Book) Orders() []models.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, o.Clone())
	}
	return out
}

// Queue returns the orders in one bucket, oldest first
func (b *Book) Queue(status models.OrderStatus) []models.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.queueLocked(status)
}

func (b *Book) queueLocked(status models.OrderStatus) []models.Order {
	out := []models.Order{}
	for _, o := range b.orders {
		if o.Status == status {
			out = append(out, o.Clone())
		}
	}
	return out
}

// History returns completed orders, newest first
func (b *Book) History() []models.Order {
	done := b.Queue(models.StatusDone)
	slices.Reverse(done)
	return done
}

// Aggregate sums quantities per item name across one bucket
func (b *Book) Aggregate(status models.OrderStatus) map[string]int {
	return tally(b.Queue(status))
}

func tally(orders []models.Order) map[string]int {
	totals := map[string]int{}
	for _, o := range orders {
		for _, item := range o.Items {
			totals[item.Name] += item.Quantity
		}
	}
	return totals
}

// Board builds all three columns from one consistent view of the cache
func (b *Book) Board() []Column {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cols := make([]Column, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		orders := b.queueLocked(s)
		cols = append(cols, Column{Status: s, Orders: orders, Items: tally(orders)})
	}
	return cols
}
