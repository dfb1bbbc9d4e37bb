package enums

import "fmt"

// OrderStatus tracks the lifecycle of a completed commercial transaction.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCanceled   OrderStatus = "canceled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var orderStatusSet = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusCompleted:  {},
	OrderStatusFailed:     {},
	OrderStatusCanceled:   {},
	OrderStatusRefunded:   {},
}

func (o OrderStatus) String() string { return string(o) }

func (o OrderStatus) IsValid() bool {
	_, ok := orderStatusSet[o]
	return ok
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown order status %q", value)
	}
	return status, nil
}
