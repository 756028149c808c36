package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizlinkhq/bizlink-backend/api/responses"
	"github.com/bizlinkhq/bizlink-backend/api/validators"
	"github.com/bizlinkhq/bizlink-backend/internal/settlement"
	"github.com/bizlinkhq/bizlink-backend/pkg/db/models"
	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
	pkgerrors "github.com/bizlinkhq/bizlink-backend/pkg/errors"
	"github.com/bizlinkhq/bizlink-backend/pkg/logger"
)

// BillingService is the read surface the billing controllers use.
type BillingService interface {
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	CurrentSubscription(ctx context.Context, requesterID, businessID uuid.UUID) (*models.BusinessSubscription, error)
	ListInvoices(ctx context.Context, requesterID, subscriptionID uuid.UUID) ([]models.Invoice, error)
}

type planResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	PriceMonthly decimal.Decimal `json:"price_monthly"`
	PriceYearly  decimal.Decimal `json:"price_yearly"`
	Currency     string          `json:"currency"`
	Features     []string        `json:"features"`
}

// ListPlans serves the public plan catalog.
func ListPlans(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		plans, err := svc.ListPlans(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]planResponse, 0, len(plans))
		for _, plan := range plans {
			out = append(out, planResponse{
				ID:           plan.ID,
				Name:         plan.Name,
				Slug:         plan.Slug,
				PriceMonthly: plan.PriceMonthly,
				PriceYearly:  plan.PriceYearly,
				Currency:     plan.Currency,
				Features:     []string(plan.Features),
			})
		}
		responses.WriteSuccess(w, out)
	}
}

type checkoutRequest struct {
	BusinessID   uuid.UUID `json:"business_id" validate:"required"`
	PlanID       uuid.UUID `json:"plan_id" validate:"required"`
	BillingCycle string    `json:"billing_cycle" validate:"required,oneof=monthly yearly"`
}

type checkoutResponse struct {
	OrderID        string    `json:"order_id"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
	KeyID          string    `json:"key_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
}

// Checkout opens a gateway order for a plan purchase.
func Checkout(svc SettlementService, logg *logger.Logger) http.HandlerFunc {
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

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cycle, err := enums.ParseBillingCycle(payload.BillingCycle)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing cycle"))
			return
		}

		result, err := svc.InitiateCheckout(r.Context(), requesterID, settlement.CheckoutInput{
			BusinessID:   payload.BusinessID,
			PlanID:       payload.PlanID,
			BillingCycle: cycle,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:        result.OrderID,
			AmountCents:    result.AmountCents,
			Currency:       result.Currency,
			KeyID:          result.KeyID,
			SubscriptionID: result.SubscriptionID,
		})
	}
}

type subscriptionResponse struct {
	ID           uuid.UUID     `json:"id"`
	BusinessID   uuid.UUID     `json:"business_id"`
	Status       string        `json:"status"`
	BillingCycle string        `json:"billing_cycle"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	ExpiresAt    *time.Time    `json:"expires_at,omitempty"`
	CancelledAt  *time.Time    `json:"cancelled_at,omitempty"`
	Plan         *planResponse `json:"plan,omitempty"`
}

// GetSubscription returns the business's current subscription.
func GetSubscription(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		requesterID, err := requesterIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		businessID, err := uuid.Parse(r.URL.Query().Get("business_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "business_id query param required"))
			return
		}

		sub, err := svc.CurrentSubscription(r.Context(), requesterID, businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := subscriptionResponse{
			ID:           sub.ID,
			BusinessID:   sub.BusinessID,
			Status:       string(sub.Status),
			BillingCycle: string(sub.BillingCycle),
			StartedAt:    sub.StartedAt,
			ExpiresAt:    sub.ExpiresAt,
			CancelledAt:  sub.CancelledAt,
		}
		if sub.Plan != nil {
			out.Plan = &planResponse{
				ID:           sub.Plan.ID,
				Name:         sub.Plan.Name,
				Slug:         sub.Plan.Slug,
				PriceMonthly: sub.Plan.PriceMonthly,
				PriceYearly:  sub.Plan.PriceYearly,
				Currency:     sub.Plan.Currency,
				Features:     []string(sub.Plan.Features),
			}
		}
		responses.WriteSuccess(w, out)
	}
}

type invoiceResponse struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	Status        string    `json:"status"`
	AmountCents   int64     `json:"amount_cents"`
	TaxCents      int64     `json:"tax_cents"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	PaidAt        time.Time `json:"paid_at"`
	DueDate       time.Time `json:"due_date"`
}

// ListInvoices returns the subscription's invoices newest first.
func ListInvoices(svc BillingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		requesterID, err := requesterIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscriptionID, err := uuid.Parse(r.URL.Query().Get("subscription_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "subscription_id query param required"))
			return
		}

		invoices, err := svc.ListInvoices(r.Context(), requesterID, subscriptionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]invoiceResponse, 0, len(invoices))
		for _, invoice := range invoices {
			out = append(out, invoiceResponse{
				ID:            invoice.ID,
				InvoiceNumber: invoice.InvoiceNumber,
				Status:        string(invoice.Status),
				AmountCents:   invoice.AmountCents,
				TaxCents:      invoice.TaxCents,
				TotalCents:    invoice.TotalCents,
				Currency:      invoice.Currency,
				PeriodStart:   invoice.PeriodStart,
				PeriodEnd:     invoice.PeriodEnd,
				PaidAt:        invoice.PaidAt,
				DueDate:       invoice.DueDate,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
