package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"inventory-service/internal/middleware"
	"inventory-service/internal/model"
	"inventory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	SKU         string  `json:"sku"`
	Price       float64 `json:"price"`
	CostPrice   float64 `json:"cost_price"`
	Stock       int     `json:"stock"`
	MinStock    int     `json:"min_stock"`
	CategoryID  *uint   `json:"category_id"`
}

// ProductHandler serves product CRUD, scoped to the authenticated owner.
type ProductHandler struct {
	DB *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{DB: db}
}

// Allowed sort keys for product listings mapped to columns. Unknown keys are
// rejected instead of silently falling back to a default.
var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"stock":      "stock",
	"created_at": "created_at",
}

func productOrderBy(sortKey string) (string, bool) {
	if sortKey == "" {
		return "created_at DESC", true
	}
	direction := "ASC"
	key := sortKey
	if strings.HasPrefix(key, "-") {
		direction = "DESC"
		key = key[1:]
	}
	column, ok := productSortColumns[key]
	if !ok {
		return "", false
	}
	return column + " " + direction, true
}

// List handles retrieving the owner's products with optional filtering
func (h *ProductHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		log.Warn("Missing user_id in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	orderBy, ok := productOrderBy(c.QueryParam("sort"))
	if !ok {
		log.Warn("Unknown sort key", zap.String("sort", c.QueryParam("sort")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown sort key " + strconv.Quote(c.QueryParam("sort"))})
	}

	query := h.DB.Model(&model.Product{}).Where("user_id = ?", userID)

	// Filter by name if specified
	if name := c.QueryParam("name"); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
		log.Info("Filtering products by name", zap.String("name", name))
	}

	// Filter by category if specified
	if categoryID := c.QueryParam("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}

	page, pageSize := pageParams(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve products"})
	}

	var products []model.Product
	err := query.Order(orderBy).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&products).Error
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve products"})
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, echo.Map{
		"items":       products,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": int(math.Ceil(float64(total) / float64(pageSize))),
	})
}

// Get handles retrieving a single product by ID
func (h *ProductHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	var product model.Product
	result := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&product)
	if result.Error != nil {
		log.Error("Product not found",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	return c.JSON(http.StatusOK, product)
}

// Create handles creating a new product owned by the caller
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.Price < 0 || req.Stock < 0 || req.MinStock < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price, stock and min_stock must not be negative"})
	}

	product := model.Product{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Price:       req.Price,
		CostPrice:   req.CostPrice,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		CategoryID:  req.CategoryID,
	}

	if result := h.DB.Create(&product); result.Error != nil {
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create product"})
	}

	log.Info("Product created successfully",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name))
	return c.JSON(http.StatusCreated, product)
}

// Update handles updating an existing product
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	// Find existing product and validate ownership
	var product model.Product
	result := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&product)
	if result.Error != nil {
		log.Error("Product not found for update",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	// Update fields. Stock is deliberately not updatable here; stock changes
	// go through the ledger so every mutation leaves a log entry.
	product.Name = req.Name
	product.Description = req.Description
	product.SKU = req.SKU
	product.Price = req.Price
	product.CostPrice = req.CostPrice
	product.MinStock = req.MinStock
	product.CategoryID = req.CategoryID

	if result := h.DB.Save(&product); result.Error != nil {
		log.Error("Failed to update product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update product"})
	}

	log.Info("Product updated successfully",
		zap.String("product_id", id),
		zap.String("name", product.Name))
	return c.JSON(http.StatusOK, product)
}

// Delete handles deleting a product (soft delete). Products referenced by
// stock logs or order items keep their history and cannot be deleted.
func (h *ProductHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	id := c.Param("id")

	var product model.Product
	result := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&product)
	if result.Error != nil {
		log.Warn("Product not found for deletion", zap.String("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	// Check for history referencing this product
	var logCount int64
	h.DB.Model(&model.StockLog{}).Where("product_id = ?", product.ID).Count(&logCount)
	var itemCount int64
	h.DB.Model(&model.SalesOrderItem{}).Where("product_id = ?", product.ID).Count(&itemCount)
	if logCount > 0 || itemCount > 0 {
		log.Warn("Cannot delete product with history",
			zap.Uint("product_id", product.ID),
			zap.Int64("stock_logs", logCount),
			zap.Int64("order_items", itemCount))
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete a product with stock or order history"})
	}

	if result := h.DB.Delete(&product); result.Error != nil {
		log.Error("Failed to delete product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete product"})
	}

	log.Info("Product deleted successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}
