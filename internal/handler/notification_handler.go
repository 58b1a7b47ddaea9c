package handler

import (
	"net/http"
	"strconv"

	"inventory-service/internal/middleware"
	"inventory-service/internal/notification"
	"inventory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationHandler serves the per-user notification feed.
type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// List returns the caller's notifications, newest first. Pass unread=true to
// restrict to unread ones.
func (h *NotificationHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	unreadOnly := c.QueryParam("unread") == "true"
	page, pageSize := pageParams(c)

	result, err := notification.List(h.DB, userID, page, pageSize, unreadOnly)
	if err != nil {
		log.Error("Failed to list notifications", zap.Error(err))
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items":       result.Items,
		"total":       result.Total,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total_pages": result.TotalPages,
	})
}

// MarkRead flags one notification as read. Marking a low-stock warning read
// re-arms the sentinel for that product.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}

	if err := notification.MarkRead(h.DB, userID, uint(id)); err != nil {
		log.Warn("Failed to mark notification read",
			zap.Uint64("notification_id", id),
			zap.Error(err))
		return httpError(c, err)
	}

	log.Info("Notification marked read", zap.Uint64("notification_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Notification marked as read"})
}

// MarkAllRead flags every unread notification of the caller as read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	updated, err := notification.MarkAllRead(h.DB, userID)
	if err != nil {
		log.Error("Failed to mark notifications read", zap.Error(err))
		return httpError(c, err)
	}

	log.Info("All notifications marked read", zap.Int64("updated", updated))
	return c.JSON(http.StatusOK, echo.Map{"updated": updated})
}
