// Package order composes stock-ledger mutations and order/line-item creation
// into all-or-nothing sales transactions. The unit of atomicity is the whole
// order: if any line item fails its stock check, no order, items, stock
// changes, or log entries survive.
package order

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"inventory-service/internal/apperr"
	"inventory-service/internal/model"
	"inventory-service/internal/stock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemInput is one requested line item.
type ItemInput struct {
	ProductID uint    `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// CreateInput describes a new sales order.
type CreateInput struct {
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	Notes         string      `json:"notes"`
	Items         []ItemInput `json:"items"`
}

// UpdateInput carries an order status transition and/or replacement notes.
type UpdateInput struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// NewOrderNo generates a unique human-readable order number: a time-based
// prefix plus a random suffix. Uniqueness is still enforced by the unique
// column; a collision fails the whole creation instead of overwriting.
func NewOrderNo(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("SO-%s-%s", now.Format("20060102150405"), suffix)
}

// Create creates a sales order with its line items and the corresponding
// sale mutations in one transaction. Line items are processed in input
// order; each one locks its product row, checks sufficiency, and appends a
// stock-log entry referencing the order number. The order total is derived
// from the items, never taken from the caller.
func Create(db *gorm.DB, userID uint, in CreateInput) (*model.SalesOrder, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validationf("order must have at least one item")
	}
	for _, item := range in.Items {
		if item.ProductID == 0 {
			return nil, apperr.Validationf("item product_id is required")
		}
		if item.Quantity <= 0 {
			return nil, apperr.Validationf("item quantity must be greater than zero")
		}
		if item.UnitPrice < 0 {
			return nil, apperr.Validationf("item unit_price must not be negative")
		}
	}

	ord := model.SalesOrder{
		UserID:        userID,
		OrderNo:       NewOrderNo(time.Now()),
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		Notes:         in.Notes,
		Status:        model.OrderStatusPending,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ord).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrOrderNumberConflict
			}
			return err
		}

		var total float64
		for _, item := range in.Items {
			line := model.SalesOrderItem{
				OrderID:   ord.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Subtotal:  float64(item.Quantity) * item.UnitPrice,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}

			// Locks the row, checks sufficiency, logs, and may notify. Any
			// failure here rolls back the whole order.
			_, err := stock.Apply(tx, userID, stock.ChangeInput{
				ProductID: item.ProductID,
				Kind:      model.KindSale,
				Quantity:  item.Quantity,
				Reference: ord.OrderNo,
			})
			if err != nil {
				return err
			}

			ord.Items = append(ord.Items, line)
			total += line.Subtotal
		}

		ord.TotalAmount = total
		return tx.Model(&model.SalesOrder{}).
			Where("id = ?", ord.ID).
			Update("total_amount", total).Error
	})
	if err != nil {
		return nil, err
	}

	return &ord, nil
}

// Update transitions an order's status and/or replaces its notes, scoped to
// the owner. Cancellation does not reverse the order's stock decrements.
func Update(db *gorm.DB, userID uint, orderID uint, in UpdateInput) (*model.SalesOrder, error) {
	if in.Status != nil && !model.ValidOrderStatus(*in.Status) {
		return nil, apperr.Validationf("unknown order status %q", *in.Status)
	}

	var ord model.SalesOrder
	err := db.Where("id = ? AND user_id = ?", orderID, userID).First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Status != nil {
		updates["status"] = *in.Status
		ord.Status = *in.Status
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
		ord.Notes = *in.Notes
	}
	if len(updates) == 0 {
		return &ord, nil
	}

	if err := db.Model(&ord).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &ord, nil
}

// Get fetches one order with its items, scoped to the owner.
func Get(db *gorm.DB, userID uint, orderID uint) (*model.SalesOrder, error) {
	var ord model.SalesOrder
	err := db.Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}
	return &ord, nil
}

// Allowed sort keys for order listings. Anything else is rejected instead of
// silently falling back.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"total_amount": "total_amount",
	"order_no":     "order_no",
}

// OrderBy maps an enumerated sort key (optionally prefixed with "-" for
// descending) to an ORDER BY clause.
func OrderBy(sortKey string) (string, error) {
	if sortKey == "" {
		return "created_at DESC", nil
	}
	direction := "ASC"
	key := sortKey
	if strings.HasPrefix(key, "-") {
		direction = "DESC"
		key = key[1:]
	}
	column, ok := sortColumns[key]
	if !ok {
		return "", apperr.Validationf("unknown sort key %q", sortKey)
	}
	return column + " " + direction, nil
}

// Page is one page of orders.
type Page struct {
	Orders     []model.SalesOrder
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// List returns the user's orders with items preloaded, filtered by status if
// given, ordered by an enumerated sort key. Pagination is 1-based.
func List(db *gorm.DB, userID uint, status, sortKey string, page, pageSize int) (*Page, error) {
	orderBy, err := OrderBy(sortKey)
	if err != nil {
		return nil, err
	}
	if status != "" && !model.ValidOrderStatus(status) {
		return nil, apperr.Validationf("unknown order status %q", status)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := db.Model(&model.SalesOrder{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []model.SalesOrder
	err = query.Preload("Items").
		Order(orderBy).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Orders:     orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}
