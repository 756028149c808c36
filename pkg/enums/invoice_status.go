package enums

import "fmt"

// InvoiceStatus tracks the settlement state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPaid InvoiceStatus = "paid"
	InvoiceStatusVoid InvoiceStatus = "void"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusPaid,
	InvoiceStatusVoid,
}

// String implements fmt.Stringer.
func (i InvoiceStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InvoiceStatus.
func (i InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts raw input into an InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
