package model

import "time"

// Notification kinds.
const (
	NotificationWarning = "warning"
	NotificationInfo    = "info"
	NotificationError   = "error"
)

// Notification is a per-user system message. Warning notifications are
// created by the low-stock sentinel; only the read flag is ever mutated.
type Notification struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Kind      string    `json:"kind" gorm:"type:varchar(20);not null"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Message   string    `json:"message" gorm:"type:text"`
	Read      bool      `json:"read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}
