package store

import (
	"context"
	"errors"
	"fmt"

	"restoflow-api/feed"
	"restoflow-api/models"

	"gorm.io/gorm"
)

type OrderRepo struct {
	base
}

func NewOrderRepo(db *gorm.DB, broker feed.Broker) *OrderRepo {
	return &OrderRepo{base{db: db, broker: broker}}
}

// List returns every order, oldest first
func (r *OrderRepo) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Order("created_at asc, id asc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepo) Get(ctx context.Context, id uint) (models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return models.Order{}, notFound(err)
	}
	return order, nil
}

// Create inserts the order; id and created_at are assigned here
func (r *OrderRepo) Create(ctx context.Context, order models.Order) (models.Order, error) {
	order.ID = 0
	if order.Status == "" {
		order.Status = models.StatusProcessing
	}
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}
	r.announce(ctx, feed.Event{Table: feed.TableOrders, Op: feed.OpInsert, ID: order.ID})
	return order, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update order %d status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.announce(ctx, feed.Event{Table: feed.TableOrders, Op: feed.OpUpdate, ID: id})
	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Order{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.announce(ctx, feed.Event{Table: feed.TableOrders, Op: feed.OpDelete, ID: id})
	return nil
}

// DeleteByStatus removes every order in the bucket and reports how many went
func (r *OrderRepo) DeleteByStatus(ctx context.Context, status models.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).Where("status = ?", status).Delete(&models.Order{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete %s orders: %w", status, res.Error)
	}
	if res.RowsAffected > 0 {
		r.announce(ctx, feed.Event{Table: feed.TableOrders, Op: feed.OpDelete})
	}
	return res.RowsAffected, nil
}

// Reset clears all orders. The atomic dialect procedure also restarts the id
// sequence; the bulk delete fallback does not.
func (r *OrderRepo) Reset(ctx context.Context) error {
	err := r.resetProcedure(ctx)
	if errors.Is(err, ErrProcedureUnavailable) {
		err = r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Order{}).Error
	}
	if err != nil {
		return fmt.Errorf("reset orders: %w", err)
	}
	r.announce(ctx, feed.Event{Table: feed.TableOrders, Op: feed.OpReset})
	return nil
}

func (r *OrderRepo) resetProcedure(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	switch db.Dialector.Name() {
	case "postgres":
		return db.Exec("TRUNCATE TABLE orders RESTART IDENTITY").Error
	case "sqlite":
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("DELETE FROM orders").Error; err != nil {
				return err
			}
			// sqlite_sequence only exists once an AUTOINCREMENT table saw an insert
			var n int64
			if err := tx.Raw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'").Scan(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
			return tx.Exec("DELETE FROM sqlite_sequence WHERE name = ?", "orders").Error
		})
	default:
		return ErrProcedureUnavailable
	}
}
