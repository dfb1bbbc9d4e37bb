package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OrderItem is one immutable line on an order.
type OrderItem struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	UnitAmountCents int64  `json:"unit_amount_cents"`
	Quantity        int    `json:"quantity"`
}

// OrderItems is the JSONB snapshot of an order's line items. Orders never
// mutate their items after creation, so a snapshot column beats a child table.
type OrderItems []OrderItem

// Value marshals the items into JSON for Postgres.
func (o OrderItems) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the slice.
func (o *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("order items: unsupported scan type %T", value)
	}

	result := OrderItems{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*o = result
	return nil
}

// SubtotalCents sums unit amount times quantity across all items.
func (o OrderItems) SubtotalCents() int64 {
	var total int64
	for _, item := range o {
		total += item.UnitAmountCents * int64(item.Quantity)
	}
	return total
}
