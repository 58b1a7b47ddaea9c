package handler

import (
	"errors"
	"net/http"
	"strconv"

	"inventory-service/internal/apperr"

	"github.com/labstack/echo/v4"
)

// httpError maps a core error to its HTTP status and client-facing message.
func httpError(c echo.Context, err error) error {
	var insufficient *apperr.InsufficientStockError
	var validation *apperr.ValidationError

	switch {
	case errors.Is(err, apperr.ErrProductNotFound),
		errors.Is(err, apperr.ErrOrderNotFound),
		errors.Is(err, apperr.ErrNotificationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.As(err, &insufficient):
		return c.JSON(http.StatusConflict, echo.Map{"error": insufficient.Error()})
	case errors.Is(err, apperr.ErrOrderNumberConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validation.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// pageParams reads 1-based page/page_size query parameters with defaults.
func pageParams(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := c.QueryParam("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}
