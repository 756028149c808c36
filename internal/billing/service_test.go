package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bizlinkhq/bizlink-backend/pkg/db/models"
	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
	pkgerrors "github.com/bizlinkhq/bizlink-backend/pkg/errors"
)

type stubRepo struct {
	plans        []models.SubscriptionPlan
	business     *models.Business
	subscription *models.BusinessSubscription
	invoices     []models.Invoice
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) CreatePayment(ctx context.Context, payment *models.Payment) error { return nil }
func (s *stubRepo) UpdatePayment(ctx context.Context, payment *models.Payment) error { return nil }
func (s *stubRepo) FindPaymentByOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	return nil, nil
}

func (s *stubRepo) CreateSubscription(ctx context.Context, subscription *models.BusinessSubscription) error {
	return nil
}

func (s *stubRepo) UpdateSubscription(ctx context.Context, subscription *models.BusinessSubscription) error {
	return nil
}

func (s *stubRepo) FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.BusinessSubscription, error) {
	if s.subscription != nil && s.subscription.ID == id {
		return s.subscription, nil
	}
	return nil, nil
}

func (s *stubRepo) FindLatestSubscriptionByBusiness(ctx context.Context, businessID uuid.UUID) (*models.BusinessSubscription, error) {
	if s.subscription != nil && s.subscription.BusinessID == businessID {
		return s.subscription, nil
	}
	return nil, nil
}

func (s *stubRepo) CreateInvoice(ctx context.Context, invoice *models.Invoice) error { return nil }

func (s *stubRepo) ListInvoicesBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Invoice, error) {
	return s.invoices, nil
}

func (s *stubRepo) ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return s.plans, nil
}

func (s *stubRepo) FindPlanByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	return nil, nil
}

func (s *stubRepo) FindBusinessByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	if s.business != nil && s.business.ID == id {
		return s.business, nil
	}
	return nil, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{Repo: repo})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return service
}

func TestListPlans(t *testing.T) {
	repo := &stubRepo{plans: []models.SubscriptionPlan{
		{Name: "Starter", PriceMonthly: decimal.NewFromInt(499)},
		{Name: "Growth", PriceMonthly: decimal.NewFromInt(999)},
	}}
	service := newTestService(t, repo)

	plans, err := service.ListPlans(context.Background())
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans got %d", len(plans))
	}
}

func TestCurrentSubscriptionOwnershipEnforced(t *testing.T) {
	ownerID := uuid.New()
	businessID := uuid.New()
	repo := &stubRepo{
		business: &models.Business{ID: businessID, OwnerID: ownerID},
		subscription: &models.BusinessSubscription{
			ID:         uuid.New(),
			BusinessID: businessID,
			Status:     enums.SubscriptionStatusActive,
		},
	}
	service := newTestService(t, repo)

	sub, err := service.CurrentSubscription(context.Background(), ownerID, businessID)
	if err != nil {
		t.Fatalf("current subscription: %v", err)
	}
	if sub.Status != enums.SubscriptionStatusActive {
		t.Fatalf("expected active got %s", sub.Status)
	}

	_, err = service.CurrentSubscription(context.Background(), uuid.New(), businessID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN got %v", err)
	}
}

func TestCurrentSubscriptionNotFound(t *testing.T) {
	ownerID := uuid.New()
	businessID := uuid.New()
	repo := &stubRepo{business: &models.Business{ID: businessID, OwnerID: ownerID}}
	service := newTestService(t, repo)

	_, err := service.CurrentSubscription(context.Background(), ownerID, businessID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND got %v", err)
	}
}

func TestListInvoicesOwnershipEnforced(t *testing.T) {
	ownerID := uuid.New()
	businessID := uuid.New()
	subID := uuid.New()
	repo := &stubRepo{
		subscription: &models.BusinessSubscription{
			ID:         subID,
			BusinessID: businessID,
			Business:   &models.Business{ID: businessID, OwnerID: ownerID},
		},
		invoices: []models.Invoice{{InvoiceNumber: "INV-20250812-ABCD1234"}},
	}
	service := newTestService(t, repo)

	invoices, err := service.ListInvoices(context.Background(), ownerID, subID)
	if err != nil {
		t.Fatalf("list invoices: %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("expected 1 invoice got %d", len(invoices))
	}

	_, err = service.ListInvoices(context.Background(), uuid.New(), subID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN got %v", err)
	}
}
