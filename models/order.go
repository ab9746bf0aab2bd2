package models

import "time"

// OrderStatus is the kitchen lifecycle bucket of an order
type OrderStatus string

const (
	StatusProcessing OrderStatus = "Processing"
	StatusReady      OrderStatus = "Ready"
	StatusDone       OrderStatus = "Done"
)

// Statuses lists every bucket in lifecycle order
var Statuses = []OrderStatus{StatusProcessing, StatusReady, StatusDone}

// Valid reports whether s is one of the known buckets
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusReady, StatusDone:
		return true
	}
	return false
}

type Order struct {
	ID           uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerName string      `json:"customer_name" gorm:"not null"`
	GlobalNote   string      `json:"global_note"`
	Items        []OrderLine `json:"items" gorm:"serializer:json;not null"`
	Total        int64       `json:"total" gorm:"not null"` // fixed at submit time
	Status       OrderStatus `json:"status" gorm:"not null;default:'Processing';index"`
	CreatedAt    time.Time   `json:"created_at" gorm:"index"`
}

// OrderLine is a by-value snapshot of a cart line taken at submit time
type OrderLine struct {
	ItemID   uint   `json:"itemId"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

// LinesTotal sums price×quantity over lines
func LinesTotal(lines []OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Price * int64(l.Quantity)
	}
	return total
}

// Clone returns a copy whose Items slice is not shared with o
func (o Order) Clone() Order {
	c := o
	c.Items = append([]OrderLine(nil), o.Items...)
	return c
}
