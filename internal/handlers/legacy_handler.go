package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	LegacyPath        = "/server/api.php"
	LegacyActionOrder = "create_order"
)

// LegacyHandler serves the action-style endpoint older storefront builds
// still call. Responses are bare JSON without the envelope.
type LegacyHandler struct {
	repo     repository.CatalogRepository
	orders   *services.OrderService
	settings *services.SiteSettingsService
	apiName  string
	logger   *logrus.Entry
}

func NewLegacyHandler(repo repository.CatalogRepository, orders *services.OrderService, settings *services.SiteSettingsService, apiName string, logger *logrus.Logger) *LegacyHandler {
	return &LegacyHandler{
		repo:     repo,
		orders:   orders,
		settings: settings,
		apiName:  apiName,
		logger:   logger.WithField("component", "legacy_handler"),
	}
}

type legacyOrderRequest struct {
	Action string `json:"action"`
	models.CreateOrderRequest
}

type legacyOrderResponse struct {
	Success      bool  `json:"success"`
	OrderID      int64 `json:"order_id"`
	TelegramSent bool  `json:"telegram_sent"`
}

func legacyError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// Register mounts the endpoint on the router.
func (h *LegacyHandler) Register(r gin.IRoutes) {
	r.GET(LegacyPath, h.Get)
	r.POST(LegacyPath, h.Post)
	r.OPTIONS(LegacyPath, func(c *gin.Context) { c.Status(http.StatusOK) })
	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		r.Handle(method, LegacyPath, h.MethodNotAllowed)
	}
}

func (h *LegacyHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	action, ok := c.GetQuery("action")
	if !ok {
		c.JSON(http.StatusOK, gin.H{"message": h.apiName + " API is working"})
		return
	}

	switch action {
	case "products":
		products, err := h.repo.ListProducts(ctx, c.DefaultQuery("category", models.CategoryAll))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, products)

	case "product":
		product, err := h.repo.GetProduct(ctx, models.ProductID(c.DefaultQuery("id", "0")))
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusOK, nil)
			return
		}
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, product)

	case "contacts":
		contacts, err := h.repo.GetContacts(ctx)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, contacts)

	case "settings":
		settings, err := h.settings.Get(ctx)
		if err != nil {
			h.logger.WithError(err).Warn("Stored settings unavailable, serving configured ones")
		}
		c.JSON(http.StatusOK, settings.Public())

	default:
		legacyError(c, http.StatusOK, "Unknown action")
	}
}

func (h *LegacyHandler) Post(c *gin.Context) {
	// decoded without binding rules: this endpoint never rejected empty fields
	var req legacyOrderRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil || req.Action != LegacyActionOrder {
		legacyError(c, http.StatusOK, "Invalid action")
		return
	}

	order, result, err := h.orders.CreateOrder(c.Request.Context(), &req.CreateOrderRequest)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, legacyOrderResponse{
		Success:      result.Success,
		OrderID:      order.ID,
		TelegramSent: result.TelegramSent,
	})
}

func (h *LegacyHandler) MethodNotAllowed(c *gin.Context) {
	legacyError(c, http.StatusMethodNotAllowed, "Method not allowed")
}

func (h *LegacyHandler) fail(c *gin.Context, err error) {
	h.logger.WithError(err).Error("Legacy request failed")
	legacyError(c, http.StatusInternalServerError, "Internal error")
}
