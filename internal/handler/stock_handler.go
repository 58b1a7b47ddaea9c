package handler

import (
	"net/http"
	"strconv"
	"time"

	"inventory-service/internal/middleware"
	"inventory-service/internal/model"
	"inventory-service/internal/stock"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockChangeRequest is one requested stock mutation.
type StockChangeRequest struct {
	ProductID uint   `json:"product_id"`
	Kind      string `json:"kind"`
	Quantity  int    `json:"quantity"`
	Reference string `json:"reference"`
}

// StockHandler serves stock mutations and the stock-log history.
type StockHandler struct {
	DB *gorm.DB
}

func NewStockHandler(db *gorm.DB) *StockHandler {
	return &StockHandler{DB: db}
}

// Change applies one stock mutation in its own transaction and returns the
// resulting product state and log entry.
func (h *StockHandler) Change(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		log.Warn("Missing user_id in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req StockChangeRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse stock change request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}

	var res *stock.Result
	defer prometheus.TrackDBOperation("transaction")(time.Now())
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = stock.Apply(tx, userID, stock.ChangeInput{
			ProductID: req.ProductID,
			Kind:      model.StockKind(req.Kind),
			Quantity:  req.Quantity,
			Reference: req.Reference,
		})
		return err
	})
	if err != nil {
		log.Warn("Stock change rejected",
			zap.Uint("product_id", req.ProductID),
			zap.String("kind", req.Kind),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		prometheus.RecordStockMutation(req.Kind, "rejected")
		return httpError(c, err)
	}

	prometheus.RecordStockMutation(req.Kind, "ok")
	if res.Notification != nil {
		prometheus.NotificationsCreatedCounter.Inc()
	} else if res.Product.Stock <= res.Product.MinStock {
		prometheus.NotificationsSuppressedCounter.Inc()
	}

	log.Info("Stock changed",
		zap.Uint("product_id", res.Product.ID),
		zap.String("kind", req.Kind),
		zap.Int("before", res.Log.BeforeStock),
		zap.Int("after", res.Log.AfterStock))
	return c.JSON(http.StatusOK, echo.Map{
		"product_id":   res.Product.ID,
		"stock":        res.Product.Stock,
		"log_id":       res.Log.ID,
		"low_stock":    res.Product.Stock <= res.Product.MinStock,
		"notification": res.Notification,
	})
}

// Logs lists the caller's stock-log history, optionally filtered by product.
func (h *StockHandler) Logs(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var productID uint
	if v := c.QueryParam("product_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product_id"})
		}
		productID = uint(n)
	}

	page, pageSize := pageParams(c)
	result, err := stock.History(h.DB, userID, productID, page, pageSize)
	if err != nil {
		log.Error("Failed to list stock logs", zap.Error(err))
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items":       result.Entries,
		"total":       result.Total,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total_pages": result.TotalPages,
	})
}

// TotalStock reports the sum of stock across the caller's products.
func (h *StockHandler) TotalStock(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var total int64
	err := h.DB.Model(&model.Product{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(stock), 0)").
		Scan(&total).Error
	if err != nil {
		log.Error("Failed to sum stock", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to compute total stock"})
	}

	return c.JSON(http.StatusOK, echo.Map{"total_stock": total})
}
