package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bizlinkhq/bizlink-backend/pkg/db/models"
	pkgerrors "github.com/bizlinkhq/bizlink-backend/pkg/errors"
)

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo Repository
}

// Service serves the read side of the billing surface: plan catalog,
// current subscription, and invoice history.
type Service struct {
	repo Repository
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

func (s *Service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	plans, err := s.repo.ListActivePlans(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}
	return plans, nil
}

// CurrentSubscription returns the newest subscription for the business,
// enforcing that the requester owns the business.
func (s *Service) CurrentSubscription(ctx context.Context, requesterID, businessID uuid.UUID) (*models.BusinessSubscription, error) {
	business, err := s.repo.FindBusinessByID(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	if business == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
	}
	if business.OwnerID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "business is not owned by requester")
	}

	sub, err := s.repo.FindLatestSubscriptionByBusiness(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription found")
	}
	return sub, nil
}

// ListInvoices returns the subscription's invoices newest first, enforcing
// that the requester owns the subscribed business.
func (s *Service) ListInvoices(ctx context.Context, requesterID, subscriptionID uuid.UUID) ([]models.Invoice, error) {
	sub, err := s.repo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	if sub.Business == nil || sub.Business.OwnerID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "subscription is not owned by requester")
	}

	invoices, err := s.repo.ListInvoicesBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return invoices, nil
}
