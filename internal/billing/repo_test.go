package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bizlinkhq/bizlink-backend/pkg/db/models"
	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	plans := `
CREATE TABLE IF NOT EXISTS subscription_plans (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  price_monthly TEXT NOT NULL,
  price_yearly TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  features TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	businesses := `
CREATE TABLE IF NOT EXISTS businesses (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	subscriptions := `
CREATE TABLE IF NOT EXISTS business_subscriptions (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  plan_id TEXT NOT NULL,
  status TEXT NOT NULL,
  billing_cycle TEXT NOT NULL,
  started_at DATETIME,
  expires_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  subscription_id TEXT NOT NULL,
  gateway_order_id TEXT NOT NULL,
  gateway_payment_id TEXT,
  status TEXT NOT NULL,
  payment_method TEXT,
  failure_reason TEXT,
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  paid_at DATETIME,
  failed_at DATETIME,
  gateway_response BLOB,
  created_at DATETIME,
  updated_at DATETIME
);`
	invoices := `
CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY,
  invoice_number TEXT NOT NULL,
  subscription_id TEXT NOT NULL,
  payment_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  period_start DATETIME NOT NULL,
  period_end DATETIME NOT NULL,
  status TEXT NOT NULL,
  paid_at DATETIME NOT NULL,
  due_date DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(plans).Error)
	require.NoError(t, db.Exec(businesses).Error)
	require.NoError(t, db.Exec(subscriptions).Error)
	require.NoError(t, db.Exec(payments).Error)
	require.NoError(t, db.Exec(invoices).Error)
	return db
}

func newPlan(t *testing.T, db *gorm.DB, name string, monthly int64, active bool) *models.SubscriptionPlan {
	t.Helper()

	plan := &models.SubscriptionPlan{
		ID:           uuid.New(),
		Name:         name,
		Slug:         name,
		PriceMonthly: decimal.NewFromInt(monthly),
		PriceYearly:  decimal.NewFromInt(monthly * 10),
		Currency:     "INR",
		IsActive:     active,
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func newSubscription(t *testing.T, db *gorm.DB, businessID, planID uuid.UUID, createdAt time.Time) *models.BusinessSubscription {
	t.Helper()

	sub := &models.BusinessSubscription{
		ID:           uuid.New(),
		BusinessID:   businessID,
		PlanID:       planID,
		Status:       enums.SubscriptionStatusPending,
		BillingCycle: enums.BillingCycleMonthly,
		CreatedAt:    createdAt,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func TestListActivePlansSkipsInactive(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newPlan(t, db, "pro", 1999, true)
	newPlan(t, db, "starter", 499, true)
	newPlan(t, db, "legacy", 99, false)

	plans, err := repo.ListActivePlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "starter", plans[0].Name)
	assert.Equal(t, "pro", plans[1].Name)
}

func TestFindPaymentByOrderID(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	payment := &models.Payment{
		ID:             uuid.New(),
		SubscriptionID: uuid.New(),
		GatewayOrderID: "order_lookup",
		Status:         enums.PaymentStatusPending,
		AmountCents:    49900,
		Currency:       "INR",
	}
	require.NoError(t, repo.CreatePayment(ctx, payment))

	found, err := repo.FindPaymentByOrderID(ctx, "order_lookup")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, payment.ID, found.ID)

	missing, err := repo.FindPaymentByOrderID(ctx, "order_unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindLatestSubscriptionByBusiness(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	business := &models.Business{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Name:    "Corner Cafe",
		Slug:    "corner-cafe",
		Status:  enums.BusinessStatusApproved,
	}
	require.NoError(t, db.Create(business).Error)
	plan := newPlan(t, db, "growth", 999, true)

	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	newSubscription(t, db, business.ID, plan.ID, base)
	latest := newSubscription(t, db, business.ID, plan.ID, base.Add(48*time.Hour))

	found, err := repo.FindLatestSubscriptionByBusiness(ctx, business.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, latest.ID, found.ID)
	require.NotNil(t, found.Plan)
	assert.Equal(t, "growth", found.Plan.Name)
	require.NotNil(t, found.Business)
	assert.Equal(t, business.OwnerID, found.Business.OwnerID)

	missing, err := repo.FindLatestSubscriptionByBusiness(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListInvoicesBySubscriptionNewestFirst(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	subID := uuid.New()
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, number := range []string{"INV-20250801-AAAA1111", "INV-20250901-BBBB2222"} {
		invoice := &models.Invoice{
			ID:             uuid.New(),
			InvoiceNumber:  number,
			SubscriptionID: subID,
			PaymentID:      uuid.New(),
			AmountCents:    84661,
			TaxCents:       15239,
			TotalCents:     99900,
			Currency:       "INR",
			PeriodStart:    base,
			PeriodEnd:      base.AddDate(0, 1, 0),
			Status:         enums.InvoiceStatusPaid,
			PaidAt:         base,
			DueDate:        base.AddDate(0, 0, 7),
			CreatedAt:      base.Add(time.Duration(i) * 24 * time.Hour),
		}
		require.NoError(t, repo.CreateInvoice(ctx, invoice))
	}

	invoices, err := repo.ListInvoicesBySubscription(ctx, subID)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "INV-20250901-BBBB2222", invoices[0].InvoiceNumber)

	none, err := repo.ListInvoicesBySubscription(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWithTxRollbackDiscardsWrites(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := "order_rolled_back"
	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		if err := txRepo.CreatePayment(ctx, &models.Payment{
			ID:             uuid.New(),
			SubscriptionID: uuid.New(),
			GatewayOrderID: orderID,
			Status:         enums.PaymentStatusPending,
			AmountCents:    100,
			Currency:       "INR",
		}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	found, err := repo.FindPaymentByOrderID(ctx, orderID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
