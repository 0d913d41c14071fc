package models

import (
	"errors"
	"fmt"
)

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ValidOrderTransitions defines the allowed lead status transitions
var ValidOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew: {
		OrderStatusProcessing,
		OrderStatusCancelled,
	},
	OrderStatusProcessing: {
		OrderStatusCompleted,
		OrderStatusCancelled,
	},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// CanTransitionOrderStatus checks if an order status transition is valid
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	// legacy rows written without a status count as new
	if from == "" {
		from = OrderStatusNew
	}
	for _, allowed := range ValidOrderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateOrderStatusTransition returns an error describing a rejected transition.
func ValidateOrderStatusTransition(from, to OrderStatus) error {
	if _, ok := ValidOrderTransitions[to]; !ok {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidStatusTransition, to)
	}
	if !CanTransitionOrderStatus(from, to) {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
	}
	return nil
}
