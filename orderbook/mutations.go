package orderbook

import (
	"context"

	"restoflow-api/models"
	"restoflow-api/statemachine"

	"github.com/sirupsen/logrus"
)

// change is one optimistic mutation. apply runs under the write lock and
// returns the inverse that undoes exactly this change, or nil when there was
// nothing to change. push talks to the store outside the lock.
type change struct {
	op      string
	orderID uint
	apply   func() (inverse func())
	push    func(ctx context.Context) error
}

func (b *Book) commit(ctx context.Context, c change) error {
	b.mu.Lock()
	inverse := c.apply()
	if inverse != nil {
		b.gen++
	}
	b.mu.Unlock()
	if inverse == nil {
		return nil
	}

	err := c.push(ctx)
	if err == nil {
		return nil
	}

	b.mu.Lock()
	inverse()
	b.gen++
	b.mu.Unlock()

	b.log.WithError(err).WithFields(logrus.Fields{"op": c.op, "order_id": c.orderID}).
		Warn("store rejected change, local cache rolled back")
	return &MutationError{Op: c.op, OrderID: c.orderID, Err: err}
}

// Advance moves the order to its next status. Done has no successor and is
// returned unchanged.
func (b *Book) Advance(ctx context.Context, id uint) (models.Order, error) {
	return b.step(ctx, id, statemachine.Advance)
}

// Revert moves the order back one status. Processing has no predecessor and
// is returned unchanged.
func (b *Book) Revert(ctx context.Context, id uint) (models.Order, error) {
	return b.step(ctx, id, statemachine.Revert)
}

func (b *Book) step(ctx context.Context, id uint, dir statemachine.Direction) (models.Order, error) {
	current, ok := b.Get(id)
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	to, ok := statemachine.Step(current.Status, dir)
	if !ok {
		return current, nil
	}
	return b.SetStatus(ctx, id, to)
}

// SetStatus writes any valid status, adjacent or not
func (b *Book) SetStatus(ctx context.Context, id uint, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, statemachine.ErrUnknownStatus
	}

	var updated models.Order
	found := false
	err := b.commit(ctx, change{
		op:      "update status of",
		orderID: id,
		apply: func() func() {
			i := b.indexOf(id)
			if i < 0 {
				return nil
			}
			found = true
			prev := b.orders[i].Status
			b.orders[i].Status = status
			updated = b.orders[i].Clone()
			return func() {
				// leave it alone if something newer already replaced our value
				if j := b.indexOf(id); j >= 0 && b.orders[j].Status == status {
					b.orders[j].Status = prev
				}
			}
		},
		push: func(ctx context.Context) error {
			return b.remote.UpdateStatus(ctx, id, status)
		},
	})
	if !found {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return updated, nil
}

// Delete removes one order for good
func (b *Book) Delete(ctx context.Context, id uint) error {
	found := false
	err := b.commit(ctx, change{
		op:      "delete",
		orderID: id,
		apply: func() func() {
			i := b.indexOf(id)
			if i < 0 {
				return nil
			}
			found = true
			removed := b.orders[i]
			b.orders = append(b.orders[:i:i], b.orders[i+1:]...)
			return func() { b.restore([]models.Order{removed}) }
		},
		push: func(ctx context.Context) error {
			return b.remote.Delete(ctx, id)
		},
	})
	if !found {
		return ErrOrderNotFound
	}
	return err
}

// ResetAll clears every order; the store also restarts order numbering
func (b *Book) ResetAll(ctx context.Context) error {
	return b.commit(ctx, change{
		op: "reset",
		apply: func() func() {
			removed := b.orders
			b.orders = nil
			return func() { b.restore(removed) }
		},
		push: b.remote.Reset,
	})
}

// ClearCompleted drops every Done order and reports how many went
func (b *Book) ClearCompleted(ctx context.Context) (int, error) {
	var removed []models.Order
	err := b.commit(ctx, change{
		op: "clear completed",
		apply: func() func() {
			kept := make([]models.Order, 0, len(b.orders))
			for _, o := range b.orders {
				if o.Status == models.StatusDone {
					removed = append(removed, o)
				} else {
					kept = append(kept, o)
				}
			}
			if len(removed) == 0 {
				return nil
			}
			b.orders = kept
			return func() { b.restore(removed) }
		},
		push: func(ctx context.Context) error {
			_, err := b.remote.DeleteByStatus(ctx, models.StatusDone)
			return err
		},
	})
	if err != nil {
		return 0, err
	}
	return len(removed), nil
}

// restore puts back orders that are not in the cache; b.mu held
func (b *Book) restore(orders []models.Order) {
	for _, o := range orders {
		if b.indexOf(o.ID) < 0 {
			b.insertSorted(o)
		}
	}
}
