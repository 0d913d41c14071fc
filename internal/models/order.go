package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// OrderDateLayout is the timestamp format stored with every order.
const OrderDateLayout = "2006-01-02 15:04:05"

const (
	DefaultOrderEmail   = "не указан"
	DefaultOrderProduct = "не указано"
	DefaultOrderMessage = "нет комментария"
	DefaultOrderSource  = "website"

	ConsentGiven   = "Да"
	ConsentMissing = "Нет"
)

// Order is a lead captured from the consultation form.
type Order struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Phone   string      `json:"phone"`
	Email   string      `json:"email"`
	Product string      `json:"product"`
	Message string      `json:"message"`
	Consent string      `json:"consent"`
	Date    string      `json:"date"`
	Status  OrderStatus `json:"status"`
	Source  string      `json:"source"`
}

// Consent decodes either the form's "Да"/"Нет" text or a JSON boolean.
type Consent string

func (c *Consent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*c = ConsentGiven
		return nil
	case "false", "null":
		*c = ConsentMissing
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Consent(s)
	return nil
}

// CreateOrderRequest is the payload accepted by the order endpoints.
type CreateOrderRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   string  `json:"phone" binding:"required"`
	Email   string  `json:"email"`
	Product string  `json:"product"`
	Message string  `json:"message"`
	Consent Consent `json:"consent"`
	Source  string  `json:"source"`
}

// ToOrder builds a new order with the form defaults applied to empty fields.
func (r *CreateOrderRequest) ToOrder() *Order {
	return &Order{
		Name:    strings.TrimSpace(r.Name),
		Phone:   strings.TrimSpace(r.Phone),
		Email:   orDefault(r.Email, DefaultOrderEmail),
		Product: orDefault(r.Product, DefaultOrderProduct),
		Message: orDefault(r.Message, DefaultOrderMessage),
		Consent: orDefault(string(r.Consent), ConsentMissing),
		Source:  orDefault(r.Source, DefaultOrderSource),
		Status:  OrderStatusNew,
	}
}

func orDefault(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

// OrderResult reports the outcome of an order submission.
type OrderResult struct {
	Success      bool   `json:"success"`
	OrderID      int64  `json:"orderId"`
	TelegramSent bool   `json:"telegramSent"`
	Fallback     bool   `json:"fallback,omitempty"`
	Status       string `json:"status,omitempty"`
}

const (
	OrderResultAccepted = "accepted"
	// OrderResultDegraded marks an order that never reached the gateway and
	// was only relayed to the messenger.
	OrderResultDegraded = "degraded"
	OrderResultRejected = "rejected"
)

type OrderResponse struct {
	Success bool   `json:"success"`
	Data    *Order `json:"data"`
}

type OrderListResponse struct {
	Success bool    `json:"success"`
	Data    []Order `json:"data"`
	Total   int     `json:"total"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}
