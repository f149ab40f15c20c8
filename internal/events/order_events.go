package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeOrderCreated  = "order.created"
	EventTypeOrderCaptured = "order.captured"
	EventTypeOrderVoided   = "order.voided"
)

// OrderEvent reports a change to a sandbox order.
type OrderEvent struct {
	BaseEvent
	Reference           string          `json:"reference"`
	MerchantReferenceID string          `json:"merchant_reference_id"`
	OrderID             string          `json:"order_id"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
}

func NewOrderEvent(eventType, reference, merchantReferenceID, orderID string, amount decimal.Decimal, currency string) *OrderEvent {
	return &OrderEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]any{
				"reference":             reference,
				"merchant_reference_id": merchantReferenceID,
				"order_id":              orderID,
				"amount":                amount.String(),
				"currency":              currency,
			},
		},
		Reference:           reference,
		MerchantReferenceID: merchantReferenceID,
		OrderID:             orderID,
		Amount:              amount,
		Currency:            currency,
	}
}
