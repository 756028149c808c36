package billing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bizlinkhq/bizlink-backend/pkg/db/models"
)

// Repository handles billing persistence. Finders return (nil, nil) when
// no row matches so callers can map absence to their own error codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	FindPaymentByOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)

	CreateSubscription(ctx context.Context, subscription *models.BusinessSubscription) error
	UpdateSubscription(ctx context.Context, subscription *models.BusinessSubscription) error
	FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.BusinessSubscription, error)
	FindLatestSubscriptionByBusiness(ctx context.Context, businessID uuid.UUID) (*models.BusinessSubscription, error)

	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	ListInvoicesBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Invoice, error)

	ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	FindPlanByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)

	FindBusinessByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *repository) FindPaymentByOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	if gatewayOrderID == "" {
		return nil, nil
	}
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) CreateSubscription(ctx context.Context, subscription *models.BusinessSubscription) error {
	return r.db.WithContext(ctx).Create(subscription).Error
}

func (r *repository) UpdateSubscription(ctx context.Context, subscription *models.BusinessSubscription) error {
	return r.db.WithContext(ctx).Save(subscription).Error
}

func (r *repository) FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.BusinessSubscription, error) {
	var sub models.BusinessSubscription
	if err := r.db.WithContext(ctx).
		Preload("Plan").
		Preload("Business").
		Where("id = ?", id).
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindLatestSubscriptionByBusiness(ctx context.Context, businessID uuid.UUID) (*models.BusinessSubscription, error) {
	var sub models.BusinessSubscription
	if err := r.db.WithContext(ctx).
		Preload("Plan").
		Preload("Business").
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) ListInvoicesBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("price_monthly ASC, name ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) FindPlanByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindBusinessByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	var business models.Business
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&business).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &business, nil
}
