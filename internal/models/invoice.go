package models

import "time"

// InvoiceStatus represents the provider-observed settlement state of an invoice
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "PENDING"
	InvoicePaid    InvoiceStatus = "PAID"
	InvoiceExpired InvoiceStatus = "EXPIRED"
)

// IsTerminal returns true once the status can no longer change
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoicePaid || s == InvoiceExpired
}

// Invoice represents a Lightning Network payment request created upstream.
// The payment hash is the correlation identifier for all later status
// lookups; the payment request string is carried for display and QR only.
type Invoice struct {
	PaymentHash    string
	PaymentRequest string
	AmountSats     int64
	Memo           string
	Status         InvoiceStatus
	CreatedAt      time.Time
}

// IsPaid returns true if the provider has confirmed settlement
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoicePaid
}
