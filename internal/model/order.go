package model

import "time"

// Order statuses. Orders are created pending; cancellation is a status
// transition only and does not restock sold items.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// SalesOrder groups the line items sold in one transaction. TotalAmount is
// always derived from the items, never set by callers.
type SalesOrder struct {
	ID            uint             `json:"id" gorm:"primarykey"`
	UserID        uint             `json:"user_id" gorm:"index;not null"`
	OrderNo       string           `json:"order_no" gorm:"type:varchar(64);unique;not null"`
	CustomerName  string           `json:"customer_name" gorm:"type:varchar(255)"`
	CustomerPhone string           `json:"customer_phone" gorm:"type:varchar(64)"`
	Notes         string           `json:"notes" gorm:"type:text"`
	TotalAmount   float64          `json:"total_amount" gorm:"default:0"`
	Status        string           `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Items         []SalesOrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// SalesOrderItem is one product line of an order.
type SalesOrderItem struct {
	ID        uint    `json:"id" gorm:"primarykey"`
	OrderID   uint    `json:"order_id" gorm:"index;not null"`
	ProductID uint    `json:"product_id" gorm:"index;not null"`
	Quantity  int     `json:"quantity" gorm:"not null"`
	UnitPrice float64 `json:"unit_price" gorm:"not null"`
	Subtotal  float64 `json:"subtotal" gorm:"not null"`
}
