package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// AuthToken is the WSAA token+sign pair; valid ~12 hours once granted.
type AuthToken struct {
	Token     string    `json:"token"`
	Sign      string    `json:"sign"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ArcaError is a coded error returned by the authority on rejection.
type ArcaError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ArcaObservation is a non-fatal remark attached to an authorization.
type ArcaObservation struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// InvoiceItemPayload mirrors one line item in the WSFE submission.
type InvoiceItemPayload struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// InvoiceRequest is the fully-formed payload submitted to WSFE. Amounts are
// already calculated and rounded; the gateway only validates shape.
type InvoiceRequest struct {
	InvoiceType          int                  `json:"invoice_type"`
	PointOfSale          int                  `json:"point_of_sale"`
	Number               int64                `json:"number"`
	IssueDate            string               `json:"issue_date"` // YYYY-MM-DD
	Concept              int                  `json:"concept"`
	ClientDocumentType   int                  `json:"client_document_type"`
	ClientDocumentNumber string               `json:"client_document_number"`
	TotalAmount          decimal.Decimal      `json:"total_amount"`
	NetAmount            decimal.Decimal      `json:"net_amount"`
	ExemptAmount         decimal.Decimal      `json:"exempt_amount"`
	VATAmount            decimal.Decimal      `json:"vat_amount"`
	ServiceFrom          *string              `json:"service_from,omitempty"`
	ServiceTo            *string              `json:"service_to,omitempty"`
	PaymentDue           *string              `json:"payment_due,omitempty"`
	Currency             string               `json:"currency"`
	ExchangeRate         decimal.Decimal      `json:"exchange_rate"`
	Items                []InvoiceItemPayload `json:"items"`
}

// SubmissionResult is the interpreted authorization outcome.
// Approved carries a CAE; a rejection carries coded errors — both are normal
// business outcomes, distinct from transport failures (returned as errors).
type SubmissionResult struct {
	Approved      bool              `json:"approved"`
	CAE           string            `json:"cae,omitempty"`
	CAEExpiration string            `json:"cae_expiration,omitempty"` // YYYYMMDD
	Number        int64             `json:"number,omitempty"`
	Observations  []ArcaObservation `json:"observations,omitempty"`
	Errors        []ArcaError       `json:"errors,omitempty"`
}

// TokenExchanger swaps a signed access-ticket request (TRA) for an auth token.
// The real WSAA speaks SOAP with CMS-signed tickets; implementations of this
// interface own that wire format.
type TokenExchanger interface {
	RequestToken(ctx context.Context, signedTRA string, isProduction bool) (*AuthToken, error)
}

// InvoiceSubmitter sends an invoice through the authenticated channel (WSFE).
type InvoiceSubmitter interface {
	SubmitInvoice(ctx context.Context, token *AuthToken, cuit string, req *InvoiceRequest, isProduction bool) (*SubmissionResult, error)
}

// ArcaEndpoints holds the per-environment service URLs.
type ArcaEndpoints struct {
	WSAAProduction string
	WSAATest       string
	WSFEProduction string
	WSFETest       string
}

// ArcaClient is the HTTP client for the ARCA bridge. It implements both
// TokenExchanger and InvoiceSubmitter; all calls go through a circuit breaker
// so a down authority fast-fails instead of piling up blocked requests.
type ArcaClient struct {
	endpoints  ArcaEndpoints
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewArcaClient(endpoints ArcaEndpoints, cb *CircuitBreaker) *ArcaClient {
	if cb == nil {
		cb = NewCircuitBreaker(DefaultCBConfig())
	}
	return &ArcaClient{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cb:         cb,
	}
}

// Breaker exposes the circuit breaker state for the health endpoint.
func (c *ArcaClient) Breaker() *CircuitBreaker { return c.cb }

type tokenRequestPayload struct {
	SignedTRA string `json:"signed_tra"`
	Service   string `json:"service"`
}

// RequestToken exchanges the signed TRA for a token+sign pair at WSAA.
func (c *ArcaClient) RequestToken(ctx context.Context, signedTRA string, isProduction bool) (*AuthToken, error) {
	url := c.endpoints.WSAATest
	if isProduction {
		url = c.endpoints.WSAAProduction
	}

	var token AuthToken
	err := c.cb.Execute(func() error {
		return c.postJSON(ctx, url, tokenRequestPayload{SignedTRA: signedTRA, Service: "wsfe"}, &token)
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}

type submitPayload struct {
	Token   string          `json:"token"`
	Sign    string          `json:"sign"`
	CUIT    string          `json:"cuit"`
	Invoice *InvoiceRequest `json:"invoice"`
}

// SubmitInvoice sends the invoice payload to WSFE and decodes the outcome.
func (c *ArcaClient) SubmitInvoice(ctx context.Context, token *AuthToken, cuit string, req *InvoiceRequest, isProduction bool) (*SubmissionResult, error) {
	url := c.endpoints.WSFETest
	if isProduction {
		url = c.endpoints.WSFEProduction
	}

	var result SubmissionResult
	err := c.cb.Execute(func() error {
		return c.postJSON(ctx, url, submitPayload{Token: token.Token, Sign: token.Sign, CUIT: cuit, Invoice: req}, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *ArcaClient) postJSON(ctx context.Context, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("arca: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("arca: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("arca: service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("arca: service returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("arca: decode response: %w", err)
	}
	return nil
}
