package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"catalog-service/internal/consultation"
	"catalog-service/internal/detail"
	"catalog-service/internal/models"
	"catalog-service/internal/session"
	"catalog-service/internal/store"
	"catalog-service/internal/viewport"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	OrderAcceptedMessage = "Спасибо! Ваша заявка принята. Мы свяжемся с вами в ближайшее время."
	OrderRejectedMessage = "Не удалось отправить заявку. Проверьте данные и попробуйте снова."

	// SeqHeader carries the page's request counter. It is echoed back so the
	// page can drop replies that arrive after a newer one.
	SeqHeader = "X-Storefront-Seq"
)

//go:embed templates/*.html
var siteTemplateFS embed.FS

var siteTemplates = template.Must(template.New("site").ParseFS(siteTemplateFS, "templates/*.html"))

// SiteResponse carries the re-rendered storefront fragments and the
// viewport directives the page applies after swapping them in. Loading tells
// the page to poll the state until the grid is filled.
type SiteResponse struct {
	Success    bool                 `json:"success"`
	Seq        int64                `json:"seq,omitempty"`
	Loading    bool                 `json:"loading"`
	Category   string               `json:"category"`
	Tabs       template.HTML        `json:"tabs"`
	Grid       template.HTML        `json:"grid"`
	Modal      template.HTML        `json:"modal"`
	Form       template.HTML        `json:"form"`
	Message    string               `json:"message,omitempty"`
	Order      *models.OrderResult  `json:"order,omitempty"`
	Directives []viewport.Directive `json:"directives"`
}

type categoryRequest struct {
	Category string `json:"category" binding:"required"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type keyRequest struct {
	Key  string `json:"key" binding:"required"`
	Ctrl bool   `json:"ctrl"`
}

// consultationRequest is the consultation form as the page submits it.
type consultationRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Email   string `json:"email"`
	Product string `json:"product"`
	Message string `json:"message"`
	Consent bool   `json:"consent"`
}

type formView struct {
	Options []consultation.Option
}

type pageView struct {
	SiteName string
	Currency string
	Contacts models.Contacts
	Tabs     template.HTML
	Grid     template.HTML
	Modal    template.HTML
	Form     template.HTML
}

// SiteHandler serves the storefront page and its interactive actions. Each
// visitor works on its own session.
type SiteHandler struct {
	sessions     *session.Registry
	cookieTTL    time.Duration
	secureCookie bool
	logger       *logrus.Entry
}

func NewSiteHandler(sessions *session.Registry, cookieTTL time.Duration, secureCookie bool, logger *logrus.Logger) *SiteHandler {
	return &SiteHandler{
		sessions:     sessions,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
		logger:       logger.WithField("component", "site_handler"),
	}
}

// Register mounts the page and the action endpoints.
func (h *SiteHandler) Register(r gin.IRoutes) {
	r.GET("/", h.Page)
	r.GET("/storefront/state", h.State)
	r.POST("/storefront/category", h.SelectCategory)
	r.POST("/storefront/search", h.Search)
	r.POST("/storefront/products/:id/details", h.OpenDetails)
	r.POST("/storefront/products/:id/order", h.OfferProduct)
	r.POST("/storefront/details/key", h.DetailKey)
	r.POST("/storefront/details/:action", h.DetailAction)
	r.POST("/storefront/orders", h.SubmitOrder)
}

func (h *SiteHandler) session(c *gin.Context) *session.Session {
	id, _ := c.Cookie(session.CookieName)
	sess, created := h.sessions.Get(id)
	if created || id != sess.ID {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, sess.ID, int(h.cookieTTL.Seconds()), "/", "", h.secureCookie, true)
	}
	return sess
}

func executeSite(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := siteTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func renderForm(sess *session.Session) (template.HTML, error) {
	return executeSite("form", formView{Options: sess.Form.Options(sess.Store.Snapshot().All)})
}

func (h *SiteHandler) fragments(sess *session.Session) (*SiteResponse, error) {
	tabs, err := sess.Catalog.RenderTabs()
	if err != nil {
		return nil, err
	}
	grid, err := sess.Catalog.RenderGrid()
	if err != nil {
		return nil, err
	}
	modal, err := sess.Detail.Render()
	if err != nil {
		return nil, err
	}
	form, err := renderForm(sess)
	if err != nil {
		return nil, err
	}
	return &SiteResponse{
		Success:  true,
		Loading:  sess.Catalog.Loading(),
		Category: sess.Catalog.ActiveCategory(),
		Tabs:     tabs,
		Grid:     grid,
		Modal:    modal,
		Form:     form,
	}, nil
}

func (h *SiteHandler) respond(c *gin.Context, sess *session.Session, status int, message string, order *models.OrderResult) {
	resp, err := h.fragments(sess)
	if err != nil {
		h.logger.WithError(err).Error("Failed to render storefront")
		errorJSON(c, http.StatusInternalServerError, "RENDER_FAILED", "Failed to render storefront")
		return
	}
	if status >= http.StatusBadRequest {
		resp.Success = false
	}
	resp.Seq, _ = strconv.ParseInt(c.GetHeader(SeqHeader), 10, 64)
	resp.Message = message
	resp.Order = order
	resp.Directives = sess.Viewport.Drain()
	c.JSON(status, resp)
}

// Page renders the full storefront.
func (h *SiteHandler) Page(c *gin.Context) {
	sess := h.session(c)
	resp, err := h.fragments(sess)
	if err != nil {
		h.logger.WithError(err).Error("Failed to render storefront")
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	// directives belong to actions; a full page load starts clean
	sess.Viewport.Drain()

	settings := sess.Store.Settings()
	page := pageView{
		SiteName: settings.SiteName,
		Currency: settings.Currency,
		Contacts: sess.Store.Contacts(),
		Tabs:     resp.Tabs,
		Grid:     resp.Grid,
		Modal:    resp.Modal,
		Form:     resp.Form,
	}

	html, err := executeSite("page", page)
	if err != nil {
		h.logger.WithError(err).Error("Failed to render page")
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// State returns the current fragments without changing anything.
func (h *SiteHandler) State(c *gin.Context) {
	sess := h.session(c)
	h.respond(c, sess, http.StatusOK, "", nil)
}

// SelectCategory activates a tab and answers with the loading placeholder;
// the products arrive through the state poll.
func (h *SiteHandler) SelectCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	sess := h.session(c)
	category := sess.Catalog.BeginCategory(req.Category)
	h.sessions.Go(func(ctx context.Context) {
		sess.Catalog.CompleteCategory(ctx, category)
	})
	h.respond(c, sess, http.StatusOK, "", nil)
}

func (h *SiteHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	sess := h.session(c)
	sess.Catalog.Search(req.Query)
	h.respond(c, sess, http.StatusOK, "", nil)
}

func (h *SiteHandler) OpenDetails(c *gin.Context) {
	sess := h.session(c)
	id := models.ProductID(c.Param("id"))
	if err := sess.Detail.Open(c.Request.Context(), id); err != nil {
		if !errors.Is(err, store.ErrProductNotFound) {
			h.logger.WithError(err).WithField("productId", id).Error("Failed to open product details")
		}
		h.respond(c, sess, http.StatusNotFound, sess.Detail.Message(), nil)
		return
	}
	h.respond(c, sess, http.StatusOK, "", nil)
}

// OfferProduct preselects a product in the consultation form.
func (h *SiteHandler) OfferProduct(c *gin.Context) {
	sess := h.session(c)
	product, err := sess.Store.GetProductByID(c.Request.Context(), models.ProductID(c.Param("id")))
	if err != nil {
		h.respond(c, sess, http.StatusNotFound, detail.NotFoundMessage, nil)
		return
	}
	sess.Bridge.OfferProduct(*product)
	h.respond(c, sess, http.StatusOK, "", nil)
}

// DetailAction applies a modal control: image and feature navigation,
// fullscreen, closing, or ordering the open product.
func (h *SiteHandler) DetailAction(c *gin.Context) {
	sess := h.session(c)
	d := sess.Detail

	switch c.Param("action") {
	case "next-image":
		d.NextImage()
	case "prev-image":
		d.PrevImage()
	case "first-image":
		d.FirstImage()
	case "last-image":
		d.LastImage()
	case "image":
		index, err := strconv.Atoi(c.Query("index"))
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "index must be a number")
			return
		}
		d.ShowImage(index)
	case "next-features":
		d.NextFeaturesPage()
	case "prev-features":
		d.PrevFeaturesPage()
	case "expand":
		d.Expand()
	case "collapse":
		d.Collapse()
	case "close":
		d.Close()
	case "backdrop":
		d.Backdrop()
	case "order":
		product := d.Product()
		d.Close()
		if product != nil {
			sess.Bridge.OfferProduct(*product)
		}
	default:
		errorJSON(c, http.StatusNotFound, "UNKNOWN_ACTION", "Unknown action")
		return
	}
	h.respond(c, sess, http.StatusOK, "", nil)
}

func (h *SiteHandler) DetailKey(c *gin.Context) {
	var req keyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	sess := h.session(c)
	sess.Detail.HandleKey(req.Key, req.Ctrl)
	h.respond(c, sess, http.StatusOK, "", nil)
}

// SubmitOrder sends the consultation form through the product store, which
// falls back to a direct relay when the gateway is down.
func (h *SiteHandler) SubmitOrder(c *gin.Context) {
	var req consultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	sess := h.session(c)

	consent := models.ConsentMissing
	if req.Consent {
		consent = models.ConsentGiven
	}
	order := &models.CreateOrderRequest{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Product: sess.Form.ProductTitle(req.Product, sess.Store.Snapshot().All),
		Message: req.Message,
		Consent: models.Consent(consent),
		Source:  models.DefaultOrderSource,
	}

	result := sess.Store.CreateOrder(c.Request.Context(), order)
	log := h.logger.WithFields(logrus.Fields{
		"orderId":      result.OrderID,
		"status":       result.Status,
		"telegramSent": result.TelegramSent,
	})
	if !result.Success {
		log.Info("Consultation request rejected")
		h.respond(c, sess, http.StatusUnprocessableEntity, OrderRejectedMessage, &result)
		return
	}
	log.Info("Consultation request submitted")
	sess.Form.Reset()
	h.respond(c, sess, http.StatusOK, OrderAcceptedMessage, &result)
}
