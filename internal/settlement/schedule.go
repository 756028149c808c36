package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
)

const (
	monthlyWindow = 30 * 24 * time.Hour
	yearlyWindow  = 365 * 24 * time.Hour
)

// Window is the activation span written on a subscription when its payment
// settles.
type Window struct {
	StartedAt time.Time
	ExpiresAt time.Time
}

// ActivationWindow computes the activation span for a settling subscription.
// The yearly window applies only when the cycle is yearly and the plan
// actually prices a yearly tier; a zero-priced yearly plan falls back to the
// 30-day window.
func ActivationWindow(cycle enums.BillingCycle, yearlyPrice decimal.Decimal, now time.Time) Window {
	started := now.UTC()
	duration := monthlyWindow
	if cycle == enums.BillingCycleYearly && yearlyPrice.GreaterThan(decimal.Zero) {
		duration = yearlyWindow
	}
	return Window{
		StartedAt: started,
		ExpiresAt: started.Add(duration),
	}
}

// FixedWindow returns the 30-day span regardless of cycle. The webhook path
// applies this unless configured cycle-aware.
func FixedWindow(now time.Time) Window {
	started := now.UTC()
	return Window{
		StartedAt: started,
		ExpiresAt: started.Add(monthlyWindow),
	}
}
