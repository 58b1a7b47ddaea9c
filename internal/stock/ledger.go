// Package stock owns the invariant that a product's current stock equals its
// initial stock plus the sum of all committed stock-log entries. Mutations
// are read-modify-write-append under an exclusive row lease held for the
// duration of the caller's transaction.
package stock

import (
	"errors"
	"math"

	"inventory-service/internal/apperr"
	"inventory-service/internal/model"
	"inventory-service/internal/notification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChangeInput describes one stock mutation. Quantity is a non-negative
// magnitude; the kind determines the sign. For adjustments the quantity is
// the absolute stock value to set, not a delta.
type ChangeInput struct {
	ProductID uint
	Kind      model.StockKind
	Quantity  int
	Reference string
}

// Result carries the post-mutation product state, the log entry appended for
// this mutation, and the low-stock notification if one was created.
type Result struct {
	Product      *model.Product
	Log          *model.StockLog
	Notification *model.Notification
}

// Apply performs one stock mutation inside the caller's transaction: it
// locks the product row, validates the change, writes the new stock value
// (and sales count for sales), appends exactly one StockLog entry, and runs
// the low-stock sentinel against the refreshed product. Under concurrent
// callers the row lock serializes mutations; each sees the committed result
// of the previous one.
func Apply(tx *gorm.DB, userID uint, in ChangeInput) (*Result, error) {
	if !in.Kind.Valid() {
		return nil, apperr.Validationf("unknown stock movement kind %q", in.Kind)
	}
	if in.Quantity < 0 {
		return nil, apperr.Validationf("quantity must not be negative")
	}
	if in.Quantity == 0 && in.Kind != model.KindAdjustment {
		return nil, apperr.Validationf("quantity must be greater than zero")
	}

	var product model.Product
	err := lockForUpdate(tx).
		Where("id = ? AND user_id = ?", in.ProductID, userID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrProductNotFound
		}
		return nil, err
	}

	before := product.Stock
	var after int
	switch in.Kind {
	case model.KindInbound:
		after = before + in.Quantity
	case model.KindOutbound, model.KindSale:
		if in.Quantity > before {
			return nil, &apperr.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   in.Quantity,
				Available:   before,
			}
		}
		after = before - in.Quantity
	case model.KindAdjustment:
		after = in.Quantity
	}

	updates := map[string]interface{}{"stock": after}
	if in.Kind == model.KindSale {
		updates["sales_count"] = product.SalesCount + in.Quantity
	}
	if err := tx.Model(&product).Updates(updates).Error; err != nil {
		return nil, err
	}
	product.Stock = after
	if in.Kind == model.KindSale {
		product.SalesCount += in.Quantity
	}

	// The logged change is always after minus before, which keeps the delta
	// meaningful for adjustments; before/after are the authoritative record.
	entry := model.StockLog{
		ProductID:   product.ID,
		UserID:      userID,
		Change:      after - before,
		Kind:        in.Kind,
		BeforeStock: before,
		AfterStock:  after,
		Reference:   in.Reference,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	notif, err := notification.MaybeWarn(tx, userID, &product)
	if err != nil {
		return nil, err
	}

	return &Result{Product: &product, Log: &entry, Notification: notif}, nil
}

// lockForUpdate acquires an exclusive row lease scoped to the transaction.
// sqlite rejects FOR UPDATE and serializes writers on its own, so the clause
// is only added for stores with a real lock manager.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Page is one page of stock-log history.
type Page struct {
	Entries    []model.StockLog
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// History lists a user's stock-log entries newest first, optionally filtered
// to one product. Pagination is 1-based.
func History(db *gorm.DB, userID uint, productID uint, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := db.Model(&model.StockLog{}).Where("user_id = ?", userID)
	if productID != 0 {
		query = query.Where("product_id = ?", productID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var entries []model.StockLog
	err := query.Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}
