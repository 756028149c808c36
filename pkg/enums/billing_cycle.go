package enums

import "fmt"

// BillingCycle defines the renewal cadence of a subscription.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

var validBillingCycles = []BillingCycle{
	BillingCycleMonthly,
	BillingCycleYearly,
}

// String implements fmt.Stringer.
func (b BillingCycle) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BillingCycle.
func (b BillingCycle) IsValid() bool {
	for _, candidate := range validBillingCycles {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillingCycle converts raw input into a BillingCycle.
func ParseBillingCycle(value string) (BillingCycle, error) {
	for _, candidate := range validBillingCycles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing cycle %q", value)
}
