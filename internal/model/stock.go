package model

import "time"

// StockKind classifies a stock change and determines its sign semantics.
type StockKind string

const (
	KindInbound    StockKind = "inbound"    // adds quantity
	KindOutbound   StockKind = "outbound"   // subtracts quantity
	KindAdjustment StockKind = "adjustment" // sets stock to quantity
	KindSale       StockKind = "sale"       // subtracts quantity, bumps sales count
)

// Valid reports whether the kind is one of the known movement kinds.
func (k StockKind) Valid() bool {
	switch k {
	case KindInbound, KindOutbound, KindAdjustment, KindSale:
		return true
	}
	return false
}

// StockLog is the immutable audit record written once per stock mutation.
// Rows are never updated or deleted; the append-only sequence for a product
// is the source of truth for how its current stock was derived.
type StockLog struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	ProductID   uint      `json:"product_id" gorm:"index;not null"`
	UserID      uint      `json:"user_id" gorm:"index;not null"`
	Change      int       `json:"change" gorm:"not null"`
	Kind        StockKind `json:"kind" gorm:"type:varchar(20);not null"`
	BeforeStock int       `json:"before_stock" gorm:"not null"`
	AfterStock  int       `json:"after_stock" gorm:"not null"`
	Reference   string    `json:"reference" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"created_at"`
}
