package handler

import (
	"net/http"
	"time"

	"inventory-service/internal/middleware"
	"inventory-service/internal/model"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DashboardHandler serves the inventory summary view.
type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

// Summary aggregates the caller's inventory and order state in one response:
// product count, total units on hand, products at or below their minimum,
// pending order count, and completed-order revenue.
func (h *DashboardHandler) Summary(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var productCount int64
	if err := h.DB.Model(&model.Product{}).
		Where("user_id = ?", userID).
		Count(&productCount).Error; err != nil {
		log.Error("Failed to count products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build summary"})
	}

	var totalStock int64
	if err := h.DB.Model(&model.Product{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(stock), 0)").
		Scan(&totalStock).Error; err != nil {
		log.Error("Failed to sum stock", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build summary"})
	}

	var lowStockCount int64
	if err := h.DB.Model(&model.Product{}).
		Where("user_id = ? AND stock <= min_stock", userID).
		Count(&lowStockCount).Error; err != nil {
		log.Error("Failed to count low-stock products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build summary"})
	}

	var pendingOrders int64
	if err := h.DB.Model(&model.SalesOrder{}).
		Where("user_id = ? AND status = ?", userID, model.OrderStatusPending).
		Count(&pendingOrders).Error; err != nil {
		log.Error("Failed to count pending orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build summary"})
	}

	var revenue float64
	if err := h.DB.Model(&model.SalesOrder{}).
		Where("user_id = ? AND status = ?", userID, model.OrderStatusCompleted).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&revenue).Error; err != nil {
		log.Error("Failed to sum revenue", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build summary"})
	}

	var unreadNotifications int64
	if err := h.DB.Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unreadNotifications).Error; err != nil {
		log.Error("Failed to count unread notifications", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to build summary"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"product_count":        productCount,
		"total_stock":          totalStock,
		"low_stock_count":      lowStockCount,
		"pending_orders":       pendingOrders,
		"completed_revenue":    revenue,
		"unread_notifications": unreadNotifications,
	})
}
