package enums

import "fmt"

// SubscriptionStatus tracks the lifecycle state of a business subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusPending,
	SubscriptionStatusActive,
	SubscriptionStatusCancelled,
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SubscriptionStatus) IsValid() bool {
	for _, candidate := range validSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubscriptionStatus converts raw input into a SubscriptionStatus.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	for _, candidate := range validSubscriptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription status %q", value)
}
