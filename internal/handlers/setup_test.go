package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	testAdminToken  = "admin-secret"
	testPlaceholder = "https://placeholder.test/350x250"
)

const testDB = `{
    "products": [
        {"id": 1, "category": "houses", "title": "Бытовка СТАНДАРТ", "price": "280 600₽", "images": ["1.png", "1b.png"], "features": ["Площадь 14,4 м²", "Утепление 100 мм"], "sale": "-10%", "specifications": {"area": "14,4 м²"}},
        {"id": 2, "category": "offices", "title": "Офисный модуль", "price": "597 800 ₽", "image": "2.png", "features": []},
        {"id": 3, "category": "houses", "title": "Дачный дом", "price": "950 000 ₽", "images": ["3.png"], "features": ["Терраса"]}
    ],
    "orders": [],
    "contacts": {"address": "г. Новосибирск", "phone": "+7 (383) 000-00-00", "email": "info@example.ru", "schedule": {"weekdays": "Пн-Пт 9-20", "weekends": "Сб-Вс 10-18"}},
    "settings": {"telegram_bot_token": "stored-token", "telegram_chat_id": "42", "site_name": "СибМодулинг", "currency": "₽"}
}`

// recordingMessenger captures relayed messages.
type recordingMessenger struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (m *recordingMessenger) SendMessage(ctx context.Context, token, chatID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, text)
	return nil
}

func (m *recordingMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

type testEnv struct {
	repo      *repository.FileRepository
	messenger *recordingMessenger
	orders    *services.OrderService
	settings  *services.SiteSettingsService
	logger    *logrus.Logger
	router    *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestEnv wires the gateway, admin and legacy routes over a file
// repository seeded with testDB.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(testDB), 0o644))

	logger := quietLogger()
	repo := repository.NewFileRepository(path)
	messenger := &recordingMessenger{}
	settings := services.NewSiteSettingsService(repo, models.Settings{}, models.Settings{SiteName: "СибМодулинг", Currency: "₽"})
	orders := services.NewOrderService(repo, settings, messenger, nil, logger)

	gateway := NewGatewayHandler(repo, orders, settings, nil, logger)
	export := NewExportHandler(orders, logger)
	legacy := NewLegacyHandler(repo, orders, settings, "SibModuling", logger)

	router := gin.New()
	router.GET("/health", HealthCheck)
	router.GET("/ready", ReadinessCheck())
	api := router.Group("/api/v1")
	gateway.Register(api)
	admin := api.Group("/admin", middleware.AdminAuth(testAdminToken))
	gateway.RegisterAdmin(admin)
	admin.GET("/orders/export", export.ExportOrders)
	legacy.Register(router)

	return &testEnv{
		repo:      repo,
		messenger: messenger,
		orders:    orders,
		settings:  settings,
		logger:    logger,
		router:    router,
	}
}

func (e *testEnv) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			payload, _ := json.Marshal(b)
			reader = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) admin(method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.do(method, path, body, "Authorization", "Bearer "+testAdminToken)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}
