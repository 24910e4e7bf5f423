package lightning

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"turtleword/internal/models"
)

const (
	createInvoiceMutation = `
		mutation CreateInvoice($walletId: ID!, $amount: Sat!, $memo: String!) {
			createInvoice(walletId: $walletId, amount: $amount, memo: $memo) {
				paymentRequest
				paymentHash
			}
		}
	`

	invoiceStatusQuery = `
		query InvoiceByPaymentHash($paymentHash: String!) {
			invoiceByPaymentHash(paymentHash: $paymentHash) {
				status
				paymentPreimage
			}
		}
	`

	// Settlement status value reported by the provider
	statusSettled = "SETTLED"
)

// Client talks to the payment provider's GraphQL API. It keeps no local
// state; every method is a single outbound request.
type Client struct {
	http     *resty.Client
	apiKey   string
	walletID string

	// When set, a provider-supplied preimage must hash to the payment
	// hash before a SETTLED status is believed
	verifyPreimages bool
}

// NewClient creates a provider client for the given GraphQL endpoint
func NewClient(serverURL, apiKey, walletID string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(serverURL).
			SetTimeout(10 * time.Second),
		apiKey:   apiKey,
		walletID: walletID,
	}
}

// WithPreimageVerification enables independent settlement verification:
// SETTLED is only accepted when SHA-256(preimage) equals the payment hash
func (c *Client) WithPreimageVerification() *Client {
	c.verifyPreimages = true
	return c
}

type graphQLError struct {
	Message string `json:"message"`
}

// post sends one GraphQL request and returns the raw response body.
// Transport errors, non-success statuses and GraphQL error arrays all
// surface as ErrUpstream with the payload logged for contract-drift
// diagnosis.
func (c *Client) post(ctx context.Context, query string, variables map[string]interface{}) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-KEY", c.apiKey).
		SetBody(map[string]interface{}{
			"query":     query,
			"variables": variables,
		}).
		Post("")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	body := resp.Body()
	if resp.IsError() {
		log.Printf("Provider returned HTTP %d: %s", resp.StatusCode(), body)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	var envelope struct {
		Errors []graphQLError `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Printf("Provider returned non-JSON body: %s", body)
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedResponse, err)
	}
	if len(envelope.Errors) > 0 {
		log.Printf("Provider returned GraphQL errors: %s", body)
		return nil, fmt.Errorf("%w: %s", ErrUpstream, envelope.Errors[0].Message)
	}

	return body, nil
}

// CreateInvoice asks the provider for a new Lightning invoice. The
// returned invoice is Pending; its payment hash is the identifier for
// all later status checks.
func (c *Client) CreateInvoice(ctx context.Context, amountSats int64, memo string) (*models.Invoice, error) {
	body, err := c.post(ctx, createInvoiceMutation, map[string]interface{}{
		"walletId": c.walletID,
		"amount":   amountSats,
		"memo":     memo,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Data struct {
			CreateInvoice *struct {
				PaymentRequest string `json:"paymentRequest"`
				PaymentHash    string `json:"paymentHash"`
			} `json:"createInvoice"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	invoice := result.Data.CreateInvoice
	if invoice == nil || invoice.PaymentRequest == "" || invoice.PaymentHash == "" {
		log.Printf("Invoice payload missing fields: %s", body)
		return nil, fmt.Errorf("%w: missing paymentRequest or paymentHash", ErrMalformedResponse)
	}

	return &models.Invoice{
		PaymentHash:    invoice.PaymentHash,
		PaymentRequest: invoice.PaymentRequest,
		AmountSats:     amountSats,
		Memo:           memo,
		Status:         models.InvoicePending,
		CreatedAt:      time.Now(),
	}, nil
}

// CheckInvoice reports whether the invoice identified by paymentHash has
// settled. Returns ErrNotFound when the provider has no matching record.
func (c *Client) CheckInvoice(ctx context.Context, paymentHash string) (bool, error) {
	body, err := c.post(ctx, invoiceStatusQuery, map[string]interface{}{
		"paymentHash": paymentHash,
	})
	if err != nil {
		return false, err
	}

	var result struct {
		Data struct {
			InvoiceByPaymentHash *struct {
				Status          string `json:"status"`
				PaymentPreimage string `json:"paymentPreimage"`
			} `json:"invoiceByPaymentHash"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	record := result.Data.InvoiceByPaymentHash
	if record == nil {
		return false, fmt.Errorf("%w: payment hash %s", ErrNotFound, paymentHash)
	}

	if record.Status != statusSettled {
		return false, nil
	}

	if c.verifyPreimages {
		if record.PaymentPreimage == "" {
			log.Printf("Settled invoice %s carried no preimage: %s", paymentHash, body)
			return false, fmt.Errorf("%w: settlement proof missing preimage", ErrMalformedResponse)
		}
		ok, err := VerifyPreimage(record.PaymentPreimage, paymentHash)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if !ok {
			log.Printf("Preimage mismatch for invoice %s", paymentHash)
			return false, fmt.Errorf("%w: preimage does not match payment hash", ErrMalformedResponse)
		}
	}

	return true, nil
}
