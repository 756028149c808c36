package razorpaywebhook

import (
	"encoding/json"

	"github.com/bizlinkhq/bizlink-backend/pkg/razorpay"
)

// Gateway event names this service reacts to.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// Event is the gateway webhook envelope.
type Event struct {
	Entity    string       `json:"entity"`
	Event     string       `json:"event"`
	Payload   EventPayload `json:"payload"`
	CreatedAt int64        `json:"created_at"`
}

type EventPayload struct {
	Payment *EntityWrapper `json:"payment"`
	Order   *EntityWrapper `json:"order"`
}

// EntityWrapper keeps the entity undecoded so the raw bytes can be stored
// verbatim on the payment row.
type EntityWrapper struct {
	Entity json.RawMessage `json:"entity"`
}

// PaymentEntity decodes the embedded payment entity, preserving the raw
// payload. Returns nil when the event carries none.
func (e *Event) PaymentEntity() (*razorpay.Payment, error) {
	if e == nil || e.Payload.Payment == nil || len(e.Payload.Payment.Entity) == 0 {
		return nil, nil
	}
	var payment razorpay.Payment
	if err := json.Unmarshal(e.Payload.Payment.Entity, &payment); err != nil {
		return nil, err
	}
	payment.Raw = e.Payload.Payment.Entity
	return &payment, nil
}
