package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/infra"
	"github.com/lorenzotomasdiez/ArcAPI/internal/model"
	"github.com/lorenzotomasdiez/ArcAPI/internal/refdata"
	"github.com/lorenzotomasdiez/ArcAPI/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	dateLayout    = "2006-01-02"
	caeDateLayout = "20060102"
)

type InvoiceService interface {
	// CreateInvoice runs the full issuance pipeline: validate, resolve client
	// and point of sale, persist PENDING with an atomically assigned number,
	// authenticate, submit, reconcile. REJECTED is returned without error;
	// a failure after the PENDING insert is persisted as ERROR and re-raised.
	CreateInvoice(ctx context.Context, userID uuid.UUID, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, userID, id uuid.UUID) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, userID uuid.UUID, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
	Statistics(ctx context.Context, userID uuid.UUID) (*dto.InvoiceStatistics, error)
	// RetryInvoice resubmits an ERROR invoice, reusing its assigned number.
	RetryInvoice(ctx context.Context, userID, id uuid.UUID) (*dto.InvoiceResponse, error)
}

type invoiceService struct {
	invoices repository.InvoiceRepository
	clients  repository.ClientRepository
	pos      repository.PointOfSaleRepository
	certs    CertificateService
	arca     ArcaService
}

func NewInvoiceService(
	invoices repository.InvoiceRepository,
	clients repository.ClientRepository,
	pos repository.PointOfSaleRepository,
	certs CertificateService,
	arca ArcaService,
) InvoiceService {
	return &invoiceService{
		invoices: invoices,
		clients:  clients,
		pos:      pos,
		certs:    certs,
		arca:     arca,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, userID uuid.UUID, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := validateInvoiceInput(&req); err != nil {
		return nil, err
	}

	client, err := s.resolveClient(ctx, userID, req.ClientID)
	if err != nil {
		return nil, err
	}
	pointOfSale, err := s.resolvePointOfSale(ctx, userID, req.PointOfSaleID)
	if err != nil {
		return nil, err
	}

	issueDate, err := parseDate(req.IssueDate, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid issue_date", ErrInvalidInput)
	}
	dueDate, err := parseDatePtr(req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid due_date", ErrInvalidInput)
	}

	var serviceFrom, serviceTo *time.Time
	if req.Concept == refdata.ConceptServices || req.Concept == refdata.ConceptMixed {
		serviceFrom, err = parseDatePtr(req.ServiceFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid service_from", ErrInvalidInput)
		}
		serviceTo, err = parseDatePtr(req.ServiceTo)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid service_to", ErrInvalidInput)
		}
		if serviceFrom == nil {
			serviceFrom = &issueDate
		}
		if serviceTo == nil {
			serviceTo = &issueDate
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = "ARS"
	}
	exchangeRate := decimal.NewFromInt(1)
	if req.ExchangeRate != nil {
		exchangeRate = *req.ExchangeRate
	}

	items, totals := CalculateTotals(req.Items)

	invoice := &model.Invoice{
		UserID:        userID,
		ClientID:      client.ID,
		PointOfSaleID: pointOfSale.ID,
		InvoiceType:   req.InvoiceType,
		Concept:       req.Concept,
		Currency:      currency,
		ExchangeRate:  exchangeRate,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		ServiceFrom:   serviceFrom,
		ServiceTo:     serviceTo,
		NetAmount:     totals.Net,
		VATAmount:     totals.VAT,
		ExemptAmount:  totals.Exempt,
		TotalAmount:   totals.Total,
		Status:        model.InvoiceStatusPending,
	}
	for _, item := range items {
		invoice.Items = append(invoice.Items, model.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			VATAmount:   item.VATAmount,
			TotalAmount: item.TotalAmount,
		})
	}
	if req.Notes != nil {
		meta, merr := json.Marshal(map[string]string{"notes": *req.Notes})
		if merr == nil {
			m := string(meta)
			invoice.Metadata = &m
		}
	}

	// Durable insert: from here on, every outcome is reflected on this row.
	if err := s.invoices.CreateNumbered(ctx, invoice); err != nil {
		return nil, err
	}

	return s.submitAndReconcile(ctx, userID, invoice, client, pointOfSale)
}

// submitAndReconcile drives a PENDING (or retried ERROR) invoice through
// authentication and submission and persists the terminal status.
func (s *invoiceService) submitAndReconcile(ctx context.Context, userID uuid.UUID, invoice *model.Invoice, client *model.Client, pointOfSale *model.PointOfSale) (*dto.InvoiceResponse, error) {
	cuit, err := s.certs.IssuerCUIT(ctx, userID, pointOfSale.IsProduction)
	if err != nil {
		return nil, s.markError(ctx, invoice, err)
	}

	token, err := s.arca.GetAuthToken(ctx, userID, cuit, pointOfSale.IsProduction)
	if err != nil {
		return nil, s.markError(ctx, invoice, err)
	}

	arcaReq := buildSubmission(invoice, client, pointOfSale)
	result, err := s.arca.Submit(ctx, token, cuit, arcaReq, pointOfSale.IsProduction)
	if err != nil {
		return nil, s.markError(ctx, invoice, err)
	}

	rawResult, _ := json.Marshal(result)
	raw := string(rawResult)

	if result.Approved {
		caeExp, perr := time.Parse(caeDateLayout, result.CAEExpiration)
		fields := map[string]interface{}{
			"status":        model.InvoiceStatusApproved,
			"cae":           result.CAE,
			"arca_response": raw,
		}
		if perr == nil {
			fields["cae_expiration"] = caeExp
		}
		if err := s.invoices.UpdateOutcome(ctx, invoice.ID, fields); err != nil {
			return nil, err
		}
		invoice.Status = model.InvoiceStatusApproved
		invoice.CAE = &result.CAE
		if perr == nil {
			invoice.CAEExpiration = &caeExp
		}
		invoice.ArcaResponse = &raw

		log.Info().
			Str("invoice_id", invoice.ID.String()).
			Int("invoice_type", invoice.InvoiceType).
			Int64("number", invoice.Number).
			Str("cae", result.CAE).
			Msg("invoice approved")
		return invoiceToResponse(invoice), nil
	}

	// Rejection is a normal business outcome: record it and hand it back.
	fields := map[string]interface{}{
		"status":        model.InvoiceStatusRejected,
		"arca_response": raw,
	}
	if err := s.invoices.UpdateOutcome(ctx, invoice.ID, fields); err != nil {
		return nil, err
	}
	invoice.Status = model.InvoiceStatusRejected
	invoice.ArcaResponse = &raw

	log.Warn().
		Str("invoice_id", invoice.ID.String()).
		Int64("number", invoice.Number).
		Interface("errors", result.Errors).
		Msg("invoice rejected by the authority")
	return invoiceToResponse(invoice), nil
}

// markError persists the failure on the invoice and returns the original
// error. The assigned number stays burned.
func (s *invoiceService) markError(ctx context.Context, invoice *model.Invoice, cause error) error {
	meta := map[string]string{"error": cause.Error()}
	if invoice.Metadata != nil {
		var existing map[string]string
		if json.Unmarshal([]byte(*invoice.Metadata), &existing) == nil {
			if notes, ok := existing["notes"]; ok {
				meta["notes"] = notes
			}
		}
	}
	rawMeta, _ := json.Marshal(meta)
	raw := string(rawMeta)

	fields := map[string]interface{}{
		"status":   model.InvoiceStatusError,
		"metadata": raw,
	}
	if uerr := s.invoices.UpdateOutcome(ctx, invoice.ID, fields); uerr != nil {
		log.Error().Err(uerr).
			Str("invoice_id", invoice.ID.String()).
			Msg("failed to persist invoice error state")
	}
	invoice.Status = model.InvoiceStatusError
	invoice.Metadata = &raw

	log.Error().Err(cause).
		Str("invoice_id", invoice.ID.String()).
		Int64("number", invoice.Number).
		Msg("invoice issuance failed")
	return cause
}

func (s *invoiceService) GetInvoice(ctx context.Context, userID, id uuid.UUID) (*dto.InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if invoice.UserID != userID {
		return nil, ErrNotFound
	}
	return invoiceToResponse(invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, userID uuid.UUID, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	invoices, total, err := s.invoices.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		data = append(data, *invoiceToResponse(&invoices[i]))
	}
	return &dto.InvoiceListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *invoiceService) Statistics(ctx context.Context, userID uuid.UUID) (*dto.InvoiceStatistics, error) {
	return s.invoices.Statistics(ctx, userID)
}

func (s *invoiceService) RetryInvoice(ctx context.Context, userID, id uuid.UUID) (*dto.InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if invoice.UserID != userID {
		return nil, ErrNotFound
	}
	if invoice.Status != model.InvoiceStatusError {
		return nil, fmt.Errorf("%w: only invoices in ERROR can be retried", ErrInvalidInput)
	}

	client, err := s.clients.FindByID(ctx, invoice.ClientID)
	if err != nil {
		return nil, ErrNotFound
	}
	pointOfSale, err := s.pos.FindByID(ctx, invoice.PointOfSaleID)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.submitAndReconcile(ctx, userID, invoice, client, pointOfSale)
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func validateInvoiceInput(req *dto.CreateInvoiceRequest) error {
	if !refdata.IsValidInvoiceType(req.InvoiceType) {
		return fmt.Errorf("%w: unknown invoice type %d", ErrInvalidInput, req.InvoiceType)
	}
	if !refdata.IsValidConcept(req.Concept) {
		return fmt.Errorf("%w: concept must be 1, 2 or 3", ErrInvalidInput)
	}
	if req.Currency != "" && !refdata.IsValidCurrency(req.Currency) {
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidInput, req.Currency)
	}
	for i, item := range req.Items {
		if !item.Quantity.IsPositive() {
			return fmt.Errorf("%w: item %d quantity must be greater than zero", ErrInvalidInput, i)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item %d unit price cannot be negative", ErrInvalidInput, i)
		}
		if !refdata.IsValidVATRate(item.VATRate) {
			return fmt.Errorf("%w: item %d has an unsupported VAT rate %s", ErrInvalidInput, i, item.VATRate)
		}
	}
	return nil
}

func (s *invoiceService) resolveClient(ctx context.Context, userID uuid.UUID, clientID string) (*model.Client, error) {
	cid, err := uuid.Parse(clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid client_id", ErrInvalidInput)
	}
	client, err := s.clients.FindByID(ctx, cid)
	if err != nil || client.UserID != userID {
		return nil, fmt.Errorf("%w: client", ErrNotFound)
	}
	if !client.IsActive {
		return nil, fmt.Errorf("%w: client is inactive", ErrInvalidInput)
	}
	return client, nil
}

func (s *invoiceService) resolvePointOfSale(ctx context.Context, userID uuid.UUID, posID *string) (*model.PointOfSale, error) {
	if posID != nil {
		pid, err := uuid.Parse(*posID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid point_of_sale_id", ErrInvalidInput)
		}
		p, err := s.pos.FindByID(ctx, pid)
		if err != nil || p.UserID != userID {
			return nil, fmt.Errorf("%w: point of sale", ErrNotFound)
		}
		if !p.IsActive {
			return nil, fmt.Errorf("%w: point of sale is inactive", ErrInvalidInput)
		}
		return p, nil
	}
	p, err := s.pos.DefaultForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active point of sale configured", ErrInvalidInput)
		}
		return nil, err
	}
	return p, nil
}

func buildSubmission(invoice *model.Invoice, client *model.Client, pointOfSale *model.PointOfSale) *infra.InvoiceRequest {
	req := &infra.InvoiceRequest{
		InvoiceType:          invoice.InvoiceType,
		PointOfSale:          pointOfSale.Number,
		Number:               invoice.Number,
		IssueDate:            invoice.IssueDate.Format(dateLayout),
		Concept:              invoice.Concept,
		ClientDocumentType:   refdata.DocumentTypeID(client.TaxIDType),
		ClientDocumentNumber: client.TaxID,
		TotalAmount:          invoice.TotalAmount,
		NetAmount:            invoice.NetAmount,
		ExemptAmount:         invoice.ExemptAmount,
		VATAmount:            invoice.VATAmount,
		Currency:             invoice.Currency,
		ExchangeRate:         invoice.ExchangeRate,
	}
	if invoice.ServiceFrom != nil {
		v := invoice.ServiceFrom.Format(dateLayout)
		req.ServiceFrom = &v
	}
	if invoice.ServiceTo != nil {
		v := invoice.ServiceTo.Format(dateLayout)
		req.ServiceTo = &v
	}
	if invoice.Concept == refdata.ConceptServices || invoice.Concept == refdata.ConceptMixed {
		due := invoice.IssueDate
		if invoice.DueDate != nil {
			due = *invoice.DueDate
		}
		v := due.Format(dateLayout)
		req.PaymentDue = &v
	}
	for _, item := range invoice.Items {
		req.Items = append(req.Items, infra.InvoiceItemPayload{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			VATAmount:   item.VATAmount,
			TotalAmount: item.TotalAmount,
		})
	}
	return req
}

func parseDate(s *string, fallback time.Time) (time.Time, error) {
	if s == nil || *s == "" {
		return time.Date(fallback.Year(), fallback.Month(), fallback.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(dateLayout, *s)
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID.String(),
		ClientID:      inv.ClientID.String(),
		PointOfSaleID: inv.PointOfSaleID.String(),
		InvoiceType:   inv.InvoiceType,
		Number:        inv.Number,
		Concept:       inv.Concept,
		Currency:      inv.Currency,
		ExchangeRate:  inv.ExchangeRate,
		IssueDate:     inv.IssueDate.Format(dateLayout),
		NetAmount:     inv.NetAmount,
		VATAmount:     inv.VATAmount,
		ExemptAmount:  inv.ExemptAmount,
		TotalAmount:   inv.TotalAmount,
		Status:        inv.Status,
		CAE:           inv.CAE,
		CreatedAt:     inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.CAEExpiration != nil {
		v := inv.CAEExpiration.Format(dateLayout)
		resp.CAEExpiration = &v
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			VATAmount:   item.VATAmount,
			TotalAmount: item.TotalAmount,
		})
	}
	return resp
}
