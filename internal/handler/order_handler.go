package handler

import (
	"net/http"
	"strconv"
	"time"

	"inventory-service/internal/middleware"
	"inventory-service/internal/order"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderHandler serves sales-order creation, listing, and status updates.
type OrderHandler struct {
	DB *gorm.DB
}

func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{DB: db}
}

// Create handles creating a sales order with its line items. The whole order
// commits or nothing does.
func (h *OrderHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		log.Warn("Missing user_id in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req order.CreateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse order request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("transaction")(time.Now())
	ord, err := order.Create(h.DB, userID, req)
	if err != nil {
		log.Warn("Order creation rejected",
			zap.Int("items", len(req.Items)),
			zap.Error(err))
		prometheus.RecordOrderOperation("create", "rejected")
		return httpError(c, err)
	}

	prometheus.RecordOrderOperation("create", "ok")
	log.Info("Order created",
		zap.Uint("order_id", ord.ID),
		zap.String("order_no", ord.OrderNo),
		zap.Int("items", len(ord.Items)),
		zap.Float64("total_amount", ord.TotalAmount))
	return c.JSON(http.StatusCreated, ord)
}

// List handles retrieving the caller's orders with optional status filter and
// enumerated sort key.
func (h *OrderHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	page, pageSize := pageParams(c)
	result, err := order.List(h.DB, userID, c.QueryParam("status"), c.QueryParam("sort"), page, pageSize)
	if err != nil {
		log.Warn("Failed to list orders", zap.Error(err))
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items":       result.Orders,
		"total":       result.Total,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total_pages": result.TotalPages,
	})
}

// Get handles retrieving one order with its items.
func (h *OrderHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ord, err := order.Get(h.DB, userID, uint(id))
	if err != nil {
		log.Warn("Order not found", zap.Uint64("order_id", id), zap.Error(err))
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, ord)
}

// Update handles order status transitions and note changes. Cancelling an
// order does not restock its items.
func (h *OrderHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	var req order.UpdateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse order update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ord, err := order.Update(h.DB, userID, uint(id), req)
	if err != nil {
		log.Warn("Order update rejected", zap.Uint64("order_id", id), zap.Error(err))
		prometheus.RecordOrderOperation("update", "rejected")
		return httpError(c, err)
	}

	prometheus.RecordOrderOperation("update", "ok")
	log.Info("Order updated",
		zap.Uint("order_id", ord.ID),
		zap.String("status", ord.Status))
	return c.JSON(http.StatusOK, ord)
}
