package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CacheInvalidator drops cached catalog reads. repository.CachedRepository
// implements it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// GatewayHandler serves the catalog gateway API consumed by the storefront.
type GatewayHandler struct {
	repo     repository.CatalogRepository
	orders   *services.OrderService
	settings *services.SiteSettingsService
	cache    CacheInvalidator
	logger   *logrus.Entry
}

// NewGatewayHandler creates the gateway handler. cache may be nil.
func NewGatewayHandler(repo repository.CatalogRepository, orders *services.OrderService, settings *services.SiteSettingsService, cache CacheInvalidator, logger *logrus.Logger) *GatewayHandler {
	return &GatewayHandler{
		repo:     repo,
		orders:   orders,
		settings: settings,
		cache:    cache,
		logger:   logger.WithField("component", "gateway_handler"),
	}
}

// Register mounts the public gateway routes.
func (h *GatewayHandler) Register(api gin.IRoutes) {
	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/categories", h.ListCategories)
	api.GET("/contacts", h.GetContacts)
	api.GET("/settings", h.GetSettings)
	api.POST("/orders", h.CreateOrder)
}

// RegisterAdmin mounts the admin routes; the caller guards them.
func (h *GatewayHandler) RegisterAdmin(admin gin.IRoutes) {
	admin.GET("/orders", h.ListOrders)
	admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	admin.GET("/settings", h.GetAdminSettings)
	admin.POST("/cache/invalidate", h.InvalidateCache)
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
}

// ListProducts returns the catalog, optionally filtered by category
// @Summary List products
// @Tags Products
// @Produce json
// @Param category query string false "Category key, all when omitted"
// @Success 200 {object} models.ProductListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /products [get]
func (h *GatewayHandler) ListProducts(c *gin.Context) {
	category := c.DefaultQuery("category", models.CategoryAll)

	products, err := h.repo.ListProducts(c.Request.Context(), category)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		errorJSON(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Total:   len(products),
	})
}

// GetProduct returns one product
// @Summary Get product
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.ProductResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [get]
func (h *GatewayHandler) GetProduct(c *gin.Context) {
	id := models.ProductID(c.Param("id"))

	product, err := h.repo.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Product not found")
			return
		}
		h.logger.WithError(err).WithField("productId", id).Error("Failed to get product")
		errorJSON(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve product")
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// ListCategories returns the distinct categories in catalog order
// @Summary List categories
// @Tags Products
// @Produce json
// @Success 200 {object} models.CategoriesResponse
// @Router /categories [get]
func (h *GatewayHandler) ListCategories(c *gin.Context) {
	categories, err := h.repo.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list categories")
		errorJSON(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve categories")
		return
	}
	c.JSON(http.StatusOK, models.CategoriesResponse{Success: true, Data: categories})
}

// GetContacts returns the site contacts
// @Summary Get contacts
// @Tags Site
// @Produce json
// @Success 200 {object} models.ContactsResponse
// @Router /contacts [get]
func (h *GatewayHandler) GetContacts(c *gin.Context) {
	contacts, err := h.repo.GetContacts(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get contacts")
		errorJSON(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve contacts")
		return
	}
	c.JSON(http.StatusOK, models.ContactsResponse{Success: true, Data: contacts})
}

// GetSettings returns the public site settings
// @Summary Get public settings
// @Tags Site
// @Produce json
// @Success 200 {object} models.SettingsResponse
// @Router /settings [get]
func (h *GatewayHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Stored settings unavailable, serving configured ones")
	}
	public := settings.Public()
	c.JSON(http.StatusOK, models.SettingsResponse{Success: true, Data: &public})
}

// CreateOrder stores a consultation request and relays it to Telegram
// @Summary Create order
// @Tags Orders
// @Accept json
// @Produce json
// @Param order body models.CreateOrderRequest true "Order data"
// @Success 201 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /orders [post]
func (h *GatewayHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	_, result, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create order")
		errorJSON(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: result})
}

// ListOrders returns every stored order
// @Summary List orders
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.OrderListResponse
// @Router /admin/orders [get]
func (h *GatewayHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		errorJSON(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve orders")
		return
	}
	c.JSON(http.StatusOK, models.OrderListResponse{Success: true, Data: orders, Total: len(orders)})
}

// UpdateOrderStatus moves an order along the status workflow
// @Summary Update order status
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param status body models.UpdateOrderStatusRequest true "New status"
// @Success 200 {object} models.OrderResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/orders/{id}/status [patch]
func (h *GatewayHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		errorJSON(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID")
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, models.OrderResponse{Success: true, Data: order})
	case errors.Is(err, repository.ErrNotFound):
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "Order not found")
	case errors.Is(err, models.ErrInvalidStatusTransition):
		errorJSON(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", err.Error())
	default:
		h.logger.WithError(err).WithField("orderId", id).Error("Failed to update order status")
		errorJSON(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update order status")
	}
}

// GetAdminSettings returns the effective settings including credentials
// @Summary Get full settings
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SettingsResponse
// @Router /admin/settings [get]
func (h *GatewayHandler) GetAdminSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Stored settings unavailable, serving configured ones")
	}
	c.JSON(http.StatusOK, models.SettingsResponse{Success: true, Data: &settings})
}

// InvalidateCache drops cached catalog reads
// @Summary Invalidate catalog cache
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SuccessResponse
// @Router /admin/cache/invalidate [post]
func (h *GatewayHandler) InvalidateCache(c *gin.Context) {
	msg := "Cache is not configured"
	if h.cache != nil {
		if err := h.cache.Invalidate(c.Request.Context()); err != nil {
			h.logger.WithError(err).Error("Failed to invalidate cache")
			errorJSON(c, http.StatusInternalServerError, "CACHE_ERROR", "Failed to invalidate cache")
			return
		}
		msg = "Cache invalidated"
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &msg})
}
