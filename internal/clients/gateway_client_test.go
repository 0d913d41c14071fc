package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayServer(t *testing.T, handler http.HandlerFunc) *GatewayClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGatewayClient(server.URL+"/api/v1", 2*time.Second)
}

func TestGatewayClient_ListProducts(t *testing.T) {
	var gotQuery string
	client := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		gotQuery = r.URL.Query().Get("category")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[{"id":1,"category":"houses","title":"Дом","features":[]}],"total":1}`))
	})

	products, err := client.ListProducts(context.Background(), models.CategoryHouses)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, models.ProductID("1"), products[0].ID)
	assert.Equal(t, "houses", gotQuery)

	_, err = client.ListProducts(context.Background(), models.CategoryAll)
	require.NoError(t, err)
	assert.Equal(t, "", gotQuery)
}

func TestGatewayClient_NullCollectionIsEmpty(t *testing.T) {
	client := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":null}`))
	})

	products, err := client.ListProducts(context.Background(), models.CategoryAll)
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestGatewayClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"success":false,"error":{"code":"INTERNAL","message":"boom"}}`))
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		}},
		{"wrong data shape", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"data":{"id":1}}`))
		}},
		{"unsuccessful envelope", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newGatewayServer(t, tt.handler)
			_, err := client.ListProducts(context.Background(), models.CategoryAll)
			assert.ErrorIs(t, err, ErrGatewayUnavailable)
		})
	}
}

func TestGatewayClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewGatewayClient(url, time.Second)
	_, err := client.GetSettings(context.Background())
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestGatewayClient_GetProduct(t *testing.T) {
	client := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/products/5":
			w.Write([]byte(`{"success":true,"data":{"id":5,"title":"Бытовка BLACK","specifications":{"area":28}}}`))
		case "/api/v1/products/6":
			w.Write([]byte(`{"success":true,"data":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"Product not found"}}`))
		}
	})

	product, err := client.GetProduct(context.Background(), "5")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "28", product.Specifications["area"])

	product, err = client.GetProduct(context.Background(), "6")
	require.NoError(t, err)
	assert.Nil(t, product)

	product, err = client.GetProduct(context.Background(), "404")
	require.NoError(t, err)
	assert.Nil(t, product)
}

func TestGatewayClient_CreateOrder(t *testing.T) {
	client := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/orders", r.URL.Path)

		var req models.CreateOrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Иван", req.Name)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"success":true,"orderId":3,"telegramSent":true,"status":"accepted"}}`))
	})

	result, err := client.CreateOrder(context.Background(), &models.CreateOrderRequest{Name: "Иван", Phone: "+7"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(3), result.OrderID)
	assert.True(t, result.TelegramSent)
}

func TestGatewayClient_GetContactsNull(t *testing.T) {
	client := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":null}`))
	})

	_, err := client.GetContacts(context.Background())
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestGatewayClient_CreateOrderRejected(t *testing.T) {
	client := newGatewayServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"error":{"code":"VALIDATION_ERROR","message":"phone is required"}}`))
	})

	_, err := client.CreateOrder(context.Background(), &models.CreateOrderRequest{Name: "Иван"})
	assert.ErrorIs(t, err, ErrGatewayRejected)
	assert.NotErrorIs(t, err, ErrGatewayUnavailable)
}
