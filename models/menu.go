package models

import "time"

type MenuItem struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Price       int64     `json:"price" gorm:"not null;check:price >= 0"`
	Category    string    `json:"category" gorm:"index"`
	ImageURL    string    `json:"image_url"`
	IsAvailable bool      `json:"is_available" gorm:"default:true"`
	SortOrder   *int      `json:"sort_order"` // nil until manually reordered
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MenuItemPatch carries a partial update; nil fields are left untouched
type MenuItemPatch struct {
	Name        *string `json:"name"`
	Price       *int64  `json:"price" binding:"omitempty,min=0"`
	Category    *string `json:"category"`
	ImageURL    *string `json:"image_url"`
	IsAvailable *bool   `json:"is_available"`
}

// Columns converts the patch into a gorm column map
func (p MenuItemPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	if p.IsAvailable != nil {
		cols["is_available"] = *p.IsAvailable
	}
	return cols
}
