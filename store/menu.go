package store

import (
	"context"
	"fmt"

	"restoflow-api/feed"
	"restoflow-api/models"

	"gorm.io/gorm"
)

type MenuRepo struct {
	base
}

func NewMenuRepo(db *gorm.DB, broker feed.Broker) *MenuRepo {
	return &MenuRepo{base{db: db, broker: broker}}
}

// List orders manually sorted items first, then by id
func (r *MenuRepo) List(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Order("CASE WHEN sort_order IS NULL THEN 1 ELSE 0 END, sort_order asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

func (r *MenuRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.MenuItem{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count menu items: %w", err)
	}
	return n, nil
}

func (r *MenuRepo) Get(ctx context.Context, id uint) (models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return models.MenuItem{}, notFound(err)
	}
	return item, nil
}

func (r *MenuRepo) Create(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	item.ID = 0
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return models.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}
	r.announce(ctx, feed.Event{Table: feed.TableMenuItems, Op: feed.OpInsert, ID: item.ID})
	return item, nil
}

// CreateBatch inserts all items in one statement
func (r *MenuRepo) CreateBatch(ctx context.Context, items []models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return fmt.Errorf("insert menu items: %w", err)
	}
	r.announce(ctx, feed.Event{Table: feed.TableMenuItems, Op: feed.OpInsert})
	return nil
}

func (r *MenuRepo) Update(ctx context.Context, id uint, patch models.MenuItemPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		_, err := r.Get(ctx, id)
		return err
	}
	return r.updateColumns(ctx, id, cols)
}

func (r *MenuRepo) SetSortOrder(ctx context.Context, id uint, order int) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"sort_order": order})
}

func (r *MenuRepo) updateColumns(ctx context.Context, id uint, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update menu item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.announce(ctx, feed.Event{Table: feed.TableMenuItems, Op: feed.OpUpdate, ID: id})
	return nil
}

func (r *MenuRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete menu item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.announce(ctx, feed.Event{Table: feed.TableMenuItems, Op: feed.OpDelete, ID: id})
	return nil
}
