package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bizlinkhq/bizlink-backend/api/responses"
	"github.com/bizlinkhq/bizlink-backend/api/validators"
	"github.com/bizlinkhq/bizlink-backend/internal/settlement"
	pkgerrors "github.com/bizlinkhq/bizlink-backend/pkg/errors"
	"github.com/bizlinkhq/bizlink-backend/pkg/logger"
)

// SettlementService is the slice of the settlement service the payment
// controllers use.
type SettlementService interface {
	VerifyPayment(ctx context.Context, requesterID uuid.UUID, input settlement.VerifyInput) (*settlement.VerifyResult, error)
	InitiateCheckout(ctx context.Context, requesterID uuid.UUID, input settlement.CheckoutInput) (*settlement.CheckoutResult, error)
}

type verifyPaymentRequest struct {
	PaymentID      string    `json:"payment_id" validate:"required"`
	OrderID        string    `json:"order_id" validate:"required"`
	Signature      string    `json:"signature" validate:"required"`
	SubscriptionID uuid.UUID `json:"subscription_id" validate:"required"`
}

type verifyPaymentResponse struct {
	Message            string     `json:"message"`
	SubscriptionStatus string     `json:"subscription_status"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
}

// VerifyPayment settles a checkout-widget callback.
func VerifyPayment(svc SettlementService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		requesterID, err := requesterIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyPayment(r.Context(), requesterID, settlement.VerifyInput{
			PaymentID:      payload.PaymentID,
			OrderID:        payload.OrderID,
			Signature:      payload.Signature,
			SubscriptionID: payload.SubscriptionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, verifyPaymentResponse{
			Message:            "payment verified",
			SubscriptionStatus: string(result.SubscriptionStatus),
			ExpiresAt:          result.ExpiresAt,
		})
	}
}
