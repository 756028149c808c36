package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizlinkhq/bizlink-backend/internal/settlement"
	"github.com/bizlinkhq/bizlink-backend/pkg/db/models"
	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
	pkgerrors "github.com/bizlinkhq/bizlink-backend/pkg/errors"
)

type fakeBillingService struct {
	plans        []models.SubscriptionPlan
	subscription *models.BusinessSubscription
	subErr       error
	invoices     []models.Invoice
	invoicesErr  error
}

func (f *fakeBillingService) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return f.plans, nil
}

func (f *fakeBillingService) CurrentSubscription(ctx context.Context, requesterID, businessID uuid.UUID) (*models.BusinessSubscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.subscription, nil
}

func (f *fakeBillingService) ListInvoices(ctx context.Context, requesterID, subscriptionID uuid.UUID) ([]models.Invoice, error) {
	if f.invoicesErr != nil {
		return nil, f.invoicesErr
	}
	return f.invoices, nil
}

func TestListPlansPublic(t *testing.T) {
	svc := &fakeBillingService{plans: []models.SubscriptionPlan{
		{
			ID:           uuid.New(),
			Name:         "Growth",
			Slug:         "growth",
			PriceMonthly: decimal.NewFromInt(999),
			PriceYearly:  decimal.NewFromInt(9990),
			Currency:     "INR",
			Features:     []string{"featured_listing", "analytics"},
		},
	}}
	handler := ListPlans(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/plans", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var payload struct {
		Data []struct {
			Name     string   `json:"name"`
			Features []string `json:"features"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].Name != "Growth" {
		t.Fatalf("unexpected payload %s", rec.Body.String())
	}
	if len(payload.Data[0].Features) != 2 {
		t.Fatalf("expected features serialized, got %v", payload.Data[0].Features)
	}
}

func TestCheckoutCreated(t *testing.T) {
	subID := uuid.New()
	svc := &fakeSettlementService{checkoutResult: &settlement.CheckoutResult{
		OrderID:        "order_new",
		AmountCents:    99900,
		Currency:       "INR",
		KeyID:          "rzp_test_key",
		SubscriptionID: subID,
	}}
	handler := Checkout(svc, nil)

	body := `{"business_id":"` + uuid.NewString() + `","plan_id":"` + uuid.NewString() + `","billing_cycle":"monthly"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/billing/checkout", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data struct {
			OrderID        string `json:"order_id"`
			KeyID          string `json:"key_id"`
			SubscriptionID string `json:"subscription_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Data.OrderID != "order_new" || payload.Data.KeyID != "rzp_test_key" {
		t.Fatalf("unexpected payload %s", rec.Body.String())
	}
	if payload.Data.SubscriptionID != subID.String() {
		t.Fatalf("expected subscription id %s got %s", subID, payload.Data.SubscriptionID)
	}
}

func TestCheckoutRejectsUnknownCycle(t *testing.T) {
	svc := &fakeSettlementService{}
	handler := Checkout(svc, nil)

	body := `{"business_id":"` + uuid.NewString() + `","plan_id":"` + uuid.NewString() + `","billing_cycle":"weekly"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/billing/checkout", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestGetSubscriptionRequiresBusinessID(t *testing.T) {
	svc := &fakeBillingService{}
	handler := GetSubscription(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/billing/subscription", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestGetSubscriptionSerializesPlan(t *testing.T) {
	svc := &fakeBillingService{subscription: &models.BusinessSubscription{
		ID:           uuid.New(),
		BusinessID:   uuid.New(),
		Status:       enums.SubscriptionStatusActive,
		BillingCycle: enums.BillingCycleYearly,
		Plan: &models.SubscriptionPlan{
			ID:          uuid.New(),
			Name:        "Growth",
			PriceYearly: decimal.NewFromInt(9990),
		},
	}}
	handler := GetSubscription(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/billing/subscription?business_id="+uuid.NewString(), ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data struct {
			Status string `json:"status"`
			Plan   *struct {
				Name string `json:"name"`
			} `json:"plan"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Data.Status != "active" || payload.Data.Plan == nil || payload.Data.Plan.Name != "Growth" {
		t.Fatalf("unexpected payload %s", rec.Body.String())
	}
}

func TestListInvoicesForbiddenPassthrough(t *testing.T) {
	svc := &fakeBillingService{invoicesErr: pkgerrors.New(pkgerrors.CodeForbidden, "subscription is not owned by requester")}
	handler := ListInvoices(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/billing/invoices?subscription_id="+uuid.NewString(), ""))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}
