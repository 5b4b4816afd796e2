package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID gives rows a client-side UUID so inserts behave the same on Postgres and SQLite.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&ProductImage{},
		&Variant{},
		&Coupon{},
		&Customer{},
		&Address{},
		&Order{},
		&OrderItem{},
		&StockReservation{},
		&OutboxEvent{},
	}
}

func (m *Category) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
func (m *Product) BeforeCreate(*gorm.DB) error          { assignID(&m.ID); return nil }
func (m *ProductImage) BeforeCreate(*gorm.DB) error     { assignID(&m.ID); return nil }
func (m *Variant) BeforeCreate(*gorm.DB) error          { assignID(&m.ID); return nil }
func (m *Coupon) BeforeCreate(*gorm.DB) error           { assignID(&m.ID); return nil }
func (m *Customer) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
func (m *Address) BeforeCreate(*gorm.DB) error          { assignID(&m.ID); return nil }
func (m *Order) BeforeCreate(*gorm.DB) error            { assignID(&m.ID); return nil }
func (m *OrderItem) BeforeCreate(*gorm.DB) error        { assignID(&m.ID); return nil }
func (m *StockReservation) BeforeCreate(*gorm.DB) error { assignID(&m.ID); return nil }
func (m *OutboxEvent) BeforeCreate(*gorm.DB) error      { assignID(&m.ID); return nil }
