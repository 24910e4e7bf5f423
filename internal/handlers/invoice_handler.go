package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/skip2/go-qrcode"

	"turtleword/internal/lightning"
	"turtleword/internal/payment"
)

// InvoiceHandler exposes the thin invoice adapters used by browser-side
// payment flows: create an invoice, poll its status, render its QR code
type InvoiceHandler struct {
	invoices payment.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoices payment.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// CreateInvoice handles POST /api/create-invoice
func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64  `json:"amount"`
		Memo   string `json:"memo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "Invoice request decode failed", err)
		return
	}
	if req.Amount <= 0 {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing amount"})
		return
	}
	if req.Memo == "" {
		req.Memo = "Turtle Game Payment"
	}

	invoice, err := h.invoices.CreateInvoice(r.Context(), req.Amount, req.Memo)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, lightning.ErrMalformedResponse) {
			status = http.StatusInternalServerError
		}
		respondWithError(w, status, ErrPaymentFailed, "Invoice creation failed", err)
		return
	}

	log.Printf("Created invoice %s for %d sats", invoice.PaymentHash, invoice.AmountSats)
	respondJSON(w, http.StatusOK, map[string]string{
		"paymentRequest": invoice.PaymentRequest,
		"paymentHash":    invoice.PaymentHash,
	})
}

// CheckInvoice handles GET /api/check-invoice?paymentHash=...
func (h *InvoiceHandler) CheckInvoice(w http.ResponseWriter, r *http.Request) {
	paymentHash := r.URL.Query().Get("paymentHash")
	if paymentHash == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing paymentHash"})
		return
	}

	paid, err := h.invoices.CheckInvoice(r.Context(), paymentHash)
	if err != nil {
		if errors.Is(err, lightning.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Invoice not found", "Invoice lookup missed", err)
			return
		}
		respondWithError(w, http.StatusBadGateway, ErrPaymentFailed, "Invoice check failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"paid": paid})
}

// InvoiceQR handles GET /api/invoice-qr?paymentRequest=... and renders
// the payment request as a PNG for manual wallet scanning
func (h *InvoiceHandler) InvoiceQR(w http.ResponseWriter, r *http.Request) {
	paymentRequest := r.URL.Query().Get("paymentRequest")
	if paymentRequest == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing paymentRequest"})
		return
	}

	png, err := qrcode.Encode(paymentRequest, qrcode.Medium, 256)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternal, "QR encoding failed", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Printf("Failed to write QR image: %v", err)
	}
}
