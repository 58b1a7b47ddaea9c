// Package notification creates and manages per-user system notifications,
// in particular the deduplicated low-stock warnings emitted after stock
// mutations.
package notification

import (
	"fmt"
	"math"

	"inventory-service/internal/apperr"
	"inventory-service/internal/model"

	"gorm.io/gorm"
)

// MaybeWarn checks the post-mutation product state against its minimum-stock
// threshold and inserts a warning notification when crossed. An existing
// unread warning for the same product suppresses the new one: once a product
// is in the warning band, no further warnings fire until the first is marked
// read. Runs inside the mutation's transaction; returns nil when nothing was
// created.
func MaybeWarn(tx *gorm.DB, userID uint, p *model.Product) (*model.Notification, error) {
	if p.Stock > p.MinStock {
		return nil, nil
	}

	title := warningTitle(p.Name)

	// Dedup window: an unread warning naming the same product.
	var count int64
	err := tx.Model(&model.Notification{}).
		Where("user_id = ? AND kind = ? AND title = ? AND read = ?",
			userID, model.NotificationWarning, title, false).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	notif := model.Notification{
		UserID: userID,
		Kind:   model.NotificationWarning,
		Title:  title,
		Message: fmt.Sprintf("Product %q is low on stock: %d left, minimum is %d.",
			p.Name, p.Stock, p.MinStock),
	}
	if err := tx.Create(&notif).Error; err != nil {
		return nil, err
	}
	return &notif, nil
}

func warningTitle(productName string) string {
	return fmt.Sprintf("Low stock: %s", productName)
}

// MarkRead flags one notification as read, scoped to its owner.
func MarkRead(db *gorm.DB, userID uint, id uint) error {
	result := db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of the user as read. Zero rows
// affected is not an error.
func MarkAllRead(db *gorm.DB, userID uint) (int64, error) {
	result := db.Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

// Page is one page of notifications.
type Page struct {
	Items      []model.Notification
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// List returns the user's notifications newest first.
func List(db *gorm.DB, userID uint, page, pageSize int, unreadOnly bool) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := db.Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []model.Notification
	err := query.Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// SweepResult summarizes one low-stock sweep run.
type SweepResult struct {
	Scanned   int
	Created   int
	LowByUser map[uint]int
}

// SweepLowStock scans all products at or below their minimum stock and runs
// each through the sentinel, catching products whose thresholds were raised
// after their last mutation. Dedup applies exactly as it does for
// mutation-triggered warnings.
func SweepLowStock(db *gorm.DB) (*SweepResult, error) {
	var products []model.Product
	if err := db.Where("stock <= min_stock").Find(&products).Error; err != nil {
		return nil, err
	}

	result := &SweepResult{LowByUser: make(map[uint]int)}
	for i := range products {
		p := &products[i]
		result.Scanned++
		result.LowByUser[p.UserID]++

		err := db.Transaction(func(tx *gorm.DB) error {
			notif, err := MaybeWarn(tx, p.UserID, p)
			if err != nil {
				return err
			}
			if notif != nil {
				result.Created++
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
