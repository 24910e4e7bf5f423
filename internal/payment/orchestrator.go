package payment

import (
	"context"
	"log"
	"time"

	"turtleword/internal/models"
)

// InvoiceService is the slice of the upstream client the orchestrator needs
type InvoiceService interface {
	CreateInvoice(ctx context.Context, amountSats int64, memo string) (*models.Invoice, error)
	CheckInvoice(ctx context.Context, paymentHash string) (bool, error)
}

// Outcome is the terminal state of one payment attempt. Exactly one of
// the three is reached per attempt.
type Outcome string

const (
	OutcomePaid    Outcome = "paid"
	OutcomeExpired Outcome = "expired"
	OutcomeFailed  Outcome = "failed"
)

// Receipt reports how a payment attempt ended. Invoice is nil only when
// invoice creation itself failed.
type Receipt struct {
	Outcome Outcome
	Invoice *models.Invoice
}

// Paid returns true if the attempt ended with a confirmed payment
func (r *Receipt) Paid() bool {
	return r.Outcome == OutcomePaid
}

// Orchestrator drives a single payment attempt: create an invoice, try
// the wallet capability if one is available, otherwise wait for a manual
// QR payment by polling invoice status.
type Orchestrator struct {
	invoices     InvoiceService
	wallet       WalletCapability
	pollInterval time.Duration
	timeout      time.Duration
}

// NewOrchestrator creates a payment orchestrator
func NewOrchestrator(invoices InvoiceService, wallet WalletCapability, pollInterval, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		invoices:     invoices,
		wallet:       wallet,
		pollInterval: pollInterval,
		timeout:      timeout,
	}
}

// Begin starts a payment attempt: create the invoice, then try the
// wallet capability if one is available. Returns the invoice and whether
// it was already settled by the wallet. A wallet decline is not an
// error; the caller falls through to the QR wait.
func (o *Orchestrator) Begin(ctx context.Context, amountSats int64, memo string) (*models.Invoice, bool, error) {
	invoice, err := o.invoices.CreateInvoice(ctx, amountSats, memo)
	if err != nil {
		log.Printf("Invoice creation failed: %v", err)
		return nil, false, err
	}

	if payer, ok := o.wallet.Get(); ok {
		if err := payer.Pay(ctx, invoice.PaymentRequest); err == nil {
			invoice.Status = models.InvoicePaid
			return invoice, true, nil
		} else {
			log.Printf("Wallet payment declined, falling back to QR wait: %v", err)
		}
	}

	return invoice, false, nil
}

// Collect runs one payment attempt to a terminal outcome. The returned
// error is only non-nil for invoice-creation failures; a payment that
// never arrives is OutcomeExpired, not an error.
func (o *Orchestrator) Collect(ctx context.Context, amountSats int64, memo string) (*Receipt, error) {
	invoice, paid, err := o.Begin(ctx, amountSats, memo)
	if err != nil {
		return &Receipt{Outcome: OutcomeFailed}, err
	}
	if paid {
		return &Receipt{Outcome: OutcomePaid, Invoice: invoice}, nil
	}

	if o.AwaitPayment(ctx, invoice.PaymentHash) {
		invoice.Status = models.InvoicePaid
		return &Receipt{Outcome: OutcomePaid, Invoice: invoice}, nil
	}

	invoice.Status = models.InvoiceExpired
	return &Receipt{Outcome: OutcomeExpired, Invoice: invoice}, nil
}

// AwaitPayment polls invoice status at the configured interval until the
// invoice settles, the overall timeout elapses, or ctx is cancelled.
// Each poll is an idempotent read; a failed poll is logged and the wait
// continues until the next tick. Returns true only on confirmed payment.
func (o *Orchestrator) AwaitPayment(ctx context.Context, paymentHash string) bool {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Timeout or caller cancellation. The invoice stays valid
			// upstream; we simply stop waiting for it.
			return false
		case <-ticker.C:
			paid, err := o.invoices.CheckInvoice(ctx, paymentHash)
			if err != nil {
				log.Printf("Invoice check failed for %s: %v", paymentHash, err)
				continue
			}
			if paid {
				return true
			}
		}
	}
}
