package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bizlinkhq/bizlink-backend/internal/billing"
	"github.com/bizlinkhq/bizlink-backend/pkg/config"
	"github.com/bizlinkhq/bizlink-backend/pkg/db/models"
	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
	pkgerrors "github.com/bizlinkhq/bizlink-backend/pkg/errors"
	"github.com/bizlinkhq/bizlink-backend/pkg/logger"
	"github.com/bizlinkhq/bizlink-backend/pkg/metrics"
	"github.com/bizlinkhq/bizlink-backend/pkg/razorpay"
)

// Gateway is the slice of the Razorpay client the settlement paths use.
type Gateway interface {
	KeyID() string
	VerifyOrderSignature(orderID, paymentID, signature string) bool
	FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error)
	CreateOrder(ctx context.Context, input razorpay.CreateOrderInput) (*razorpay.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the settlement service.
type ServiceParams struct {
	Repo     billing.Repository
	Gateway  Gateway
	TxRunner txRunner
	Billing  config.BillingConfig
	Metrics  *metrics.SettlementMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

// Service settles gateway payments against subscriptions: checkout
// initiation and the client-verified settlement path.
type Service struct {
	repo     billing.Repository
	gateway  Gateway
	txRunner txRunner
	billing  config.BillingConfig
	metrics  *metrics.SettlementMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a settlement service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "repo required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     params.Repo,
		gateway:  params.Gateway,
		txRunner: params.TxRunner,
		billing:  params.Billing,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// VerifyInput carries the client-side checkout callback payload.
type VerifyInput struct {
	PaymentID      string
	OrderID        string
	Signature      string
	SubscriptionID uuid.UUID
}

// VerifyResult reports the settlement outcome to the caller.
type VerifyResult struct {
	SubscriptionStatus enums.SubscriptionStatus
	ExpiresAt          *time.Time
}

// VerifyPayment settles a payment reported by the checkout widget. The
// signature check fails closed: a mismatch marks the payment row failed
// before the validation error is returned.
func (s *Service) VerifyPayment(ctx context.Context, requesterID uuid.UUID, input VerifyInput) (*VerifyResult, error) {
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, input.OrderID)
	}

	if !s.gateway.VerifyOrderSignature(input.OrderID, input.PaymentID, input.Signature) {
		s.recordSignatureFailure(ctx, input.OrderID)
		s.metrics.IncSettlement("verify", "signature_mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment signature")
	}

	entity, err := s.gateway.FetchPayment(ctx, input.PaymentID)
	if err != nil {
		s.metrics.IncSettlement("verify", "gateway_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment entity")
	}

	sub, err := s.repo.FindSubscriptionByID(ctx, input.SubscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil || sub.Plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	if sub.Business == nil || sub.Business.OwnerID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "subscription is not owned by requester")
	}

	now := s.now().UTC()
	window := ActivationWindow(sub.BillingCycle, sub.Plan.PriceYearly, now)

	var settled *models.Payment
	var alreadySettled bool
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment, err := repo.FindPaymentByOrderID(ctx, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for order")
		}
		if payment.Status == enums.PaymentStatusCompleted {
			settled = payment
			alreadySettled = true
			return nil
		}

		applyCapture(payment, entity)
		if err := repo.UpdatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		sub.Status = enums.SubscriptionStatusActive
		sub.StartedAt = &window.StartedAt
		sub.ExpiresAt = &window.ExpiresAt
		sub.CancelledAt = nil
		if err := repo.UpdateSubscription(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate subscription")
		}

		settled = payment
		return nil
	})
	if err != nil {
		s.metrics.IncSettlement("verify", "failure")
		return nil, err
	}

	if !alreadySettled {
		s.issueInvoice(ctx, sub, settled, now)
	}
	s.metrics.IncSettlement("verify", "success")

	return &VerifyResult{
		SubscriptionStatus: sub.Status,
		ExpiresAt:          sub.ExpiresAt,
	}, nil
}

// recordSignatureFailure marks the payment failed so a forged callback
// leaves an auditable row. Lookup or write errors are logged, not returned;
// the caller still gets the validation error.
func (s *Service) recordSignatureFailure(ctx context.Context, orderID string) {
	payment, err := s.repo.FindPaymentByOrderID(ctx, orderID)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "settlement.signature_failure.lookup", err)
		}
		return
	}
	if payment == nil || payment.Status.IsTerminal() {
		return
	}

	now := s.now().UTC()
	reason := "Invalid signature"
	payment.Status = enums.PaymentStatusFailed
	payment.FailureReason = &reason
	payment.FailedAt = &now
	if err := s.repo.UpdatePayment(ctx, payment); err != nil && s.logg != nil {
		s.logg.Error(ctx, "settlement.signature_failure.write", err)
	}
}

// CheckoutInput starts a purchase of a plan for a business.
type CheckoutInput struct {
	BusinessID   uuid.UUID
	PlanID       uuid.UUID
	BillingCycle enums.BillingCycle
}

// CheckoutResult feeds the hosted checkout widget.
type CheckoutResult struct {
	OrderID        string
	AmountCents    int64
	Currency       string
	KeyID          string
	SubscriptionID uuid.UUID
}

// InitiateCheckout creates a pending subscription, opens a gateway order
// sized from the plan price for the chosen cycle, and records the pending
// payment that both settlement paths later resolve.
func (s *Service) InitiateCheckout(ctx context.Context, requesterID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	business, err := s.repo.FindBusinessByID(ctx, input.BusinessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}
	if business == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
	}
	if business.OwnerID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "business is not owned by requester")
	}

	plan, err := s.repo.FindPlanByID(ctx, input.PlanID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
	}
	if plan == nil || !plan.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}

	price := plan.PriceMonthly
	if input.BillingCycle == enums.BillingCycleYearly {
		price = plan.PriceYearly
	}
	if !price.GreaterThan(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("plan does not offer %s billing", input.BillingCycle))
	}
	amountCents := price.Mul(decimal.New(100, 0)).IntPart()

	subscription := &models.BusinessSubscription{
		ID:           uuid.New(),
		BusinessID:   business.ID,
		PlanID:       plan.ID,
		Status:       enums.SubscriptionStatusPending,
		BillingCycle: input.BillingCycle,
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderInput{
		Amount:   amountCents,
		Currency: plan.Currency,
		Receipt:  subscription.ID.String(),
		Notes: map[string]string{
			"business_id": business.ID.String(),
			"plan_id":     plan.ID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateSubscription(ctx, subscription); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}
		payment := &models.Payment{
			SubscriptionID: subscription.ID,
			GatewayOrderID: order.ID,
			Status:         enums.PaymentStatusPending,
			AmountCents:    amountCents,
			Currency:       plan.Currency,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{
		OrderID:        order.ID,
		AmountCents:    amountCents,
		Currency:       plan.Currency,
		KeyID:          s.gateway.KeyID(),
		SubscriptionID: subscription.ID,
	}, nil
}

// applyCapture copies the authoritative gateway entity onto the payment row.
func applyCapture(payment *models.Payment, entity *razorpay.Payment) {
	paidAt := entity.PaidAt()
	payment.Status = enums.PaymentStatusCompleted
	payment.GatewayPaymentID = &entity.ID
	if entity.Method != "" {
		method := entity.Method
		payment.PaymentMethod = &method
	}
	payment.PaidAt = &paidAt
	payment.FailedAt = nil
	payment.FailureReason = nil
	if len(entity.Raw) > 0 {
		payment.GatewayResponse = entity.Raw
	}
}

// issueInvoice writes the bookkeeping record after a committed settlement.
// Failures are logged and never unwind the settlement.
func (s *Service) issueInvoice(ctx context.Context, sub *models.BusinessSubscription, payment *models.Payment, now time.Time) {
	if sub == nil || payment == nil || sub.StartedAt == nil || sub.ExpiresAt == nil {
		return
	}

	total := decimal.New(payment.AmountCents, 0)
	rate := s.billing.TaxRate()
	// The paid amount is tax inclusive; back the base out of the total.
	base := total.Div(decimal.New(1, 0).Add(rate)).Round(0)
	taxCents := total.Sub(base).IntPart()

	invoice := &models.Invoice{
		InvoiceNumber:  s.invoiceNumber(now),
		SubscriptionID: sub.ID,
		PaymentID:      payment.ID,
		AmountCents:    base.IntPart(),
		TaxCents:       taxCents,
		TotalCents:     payment.AmountCents,
		Currency:       payment.Currency,
		PeriodStart:    *sub.StartedAt,
		PeriodEnd:      *sub.ExpiresAt,
		Status:         enums.InvoiceStatusPaid,
		PaidAt:         now,
		DueDate:        now.AddDate(0, 0, s.billing.InvoiceDueDays),
	}

	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "settlement.invoice.write", err)
		}
		return
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "invoice_number", invoice.InvoiceNumber), "settlement.invoice.created")
	}
}

func (s *Service) invoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}
