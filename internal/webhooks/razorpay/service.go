package razorpaywebhook

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bizlinkhq/bizlink-backend/internal/billing"
	"github.com/bizlinkhq/bizlink-backend/internal/settlement"
	"github.com/bizlinkhq/bizlink-backend/pkg/config"
	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
	pkgerrors "github.com/bizlinkhq/bizlink-backend/pkg/errors"
	"github.com/bizlinkhq/bizlink-backend/pkg/logger"
	"github.com/bizlinkhq/bizlink-backend/pkg/metrics"
	"github.com/bizlinkhq/bizlink-backend/pkg/razorpay"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo     billing.Repository
	TxRunner txRunner
	Billing  config.BillingConfig
	Metrics  *metrics.SettlementMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

// Service applies gateway webhook events to payments and subscriptions.
type Service struct {
	repo     billing.Repository
	txRunner txRunner
	billing  config.BillingConfig
	metrics  *metrics.SettlementMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "repo required")
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
		txRunner: params.TxRunner,
		billing:  params.Billing,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// HandleEvent processes one gateway delivery. Unrecognized event types are
// acknowledged without effect so the gateway stops redelivering them.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event required")
	}
	s.metrics.IncWebhookEvent(event.Event)

	switch event.Event {
	case EventPaymentCaptured:
		entity, err := event.PaymentEntity()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment entity")
		}
		if entity == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment entity missing")
		}
		return s.applyCaptured(ctx, entity)
	case EventPaymentFailed:
		entity, err := event.PaymentEntity()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment entity")
		}
		if entity == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment entity missing")
		}
		return s.applyFailed(ctx, entity)
	case EventOrderPaid:
		// Informational; the payment.captured delivery does the settling.
		return nil
	default:
		return nil
	}
}

func (s *Service) applyCaptured(ctx context.Context, entity *razorpay.Payment) error {
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, entity.OrderID)
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment, err := repo.FindPaymentByOrderID(ctx, entity.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for order")
		}
		if payment.Status == enums.PaymentStatusCompleted {
			return nil
		}

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
		if err := repo.UpdatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		return s.activateSubscription(ctx, repo, payment.SubscriptionID)
	})
	if err != nil {
		s.metrics.IncSettlement("webhook", "failure")
		return err
	}
	s.metrics.IncSettlement("webhook", "success")
	return nil
}

// activateSubscription flips the owning subscription active. The window is
// the fixed 30-day span unless the service is configured cycle-aware.
func (s *Service) activateSubscription(ctx context.Context, repo billing.Repository, subscriptionID uuid.UUID) error {
	sub, err := repo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}

	now := s.now().UTC()
	window := settlement.FixedWindow(now)
	if s.billing.WebhookCycleAware && sub.Plan != nil {
		window = settlement.ActivationWindow(sub.BillingCycle, sub.Plan.PriceYearly, now)
	}

	sub.Status = enums.SubscriptionStatusActive
	sub.StartedAt = &window.StartedAt
	sub.ExpiresAt = &window.ExpiresAt
	sub.CancelledAt = nil
	if err := repo.UpdateSubscription(ctx, sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate subscription")
	}
	return nil
}

func (s *Service) applyFailed(ctx context.Context, entity *razorpay.Payment) error {
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, entity.OrderID)
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment, err := repo.FindPaymentByOrderID(ctx, entity.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for order")
		}
		if payment.Status.IsTerminal() {
			return nil
		}

		now := s.now().UTC()
		failedAt := entity.PaidAt()
		reason := entity.ErrorDescription
		if reason == "" {
			reason = entity.ErrorCode
		}
		payment.Status = enums.PaymentStatusFailed
		payment.FailureReason = &reason
		payment.FailedAt = &failedAt
		if len(entity.Raw) > 0 {
			payment.GatewayResponse = entity.Raw
		}
		if err := repo.UpdatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		sub, err := repo.FindSubscriptionByID(ctx, payment.SubscriptionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		if sub == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		sub.Status = enums.SubscriptionStatusCancelled
		sub.CancelledAt = &now
		if err := repo.UpdateSubscription(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncSettlement("webhook", "failure")
		return err
	}
	s.metrics.IncSettlement("webhook", "failed_payment")
	return nil
}
