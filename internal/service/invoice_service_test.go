package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/cache"
	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/infra"
	"github.com/lorenzotomasdiez/ArcAPI/internal/model"
	"github.com/lorenzotomasdiez/ArcAPI/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── in-memory repository stubs ───────────────────────────────────────────────

type stubInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{invoices: make(map[uuid.UUID]*model.Invoice)}
}

func (r *stubInvoiceRepo) CreateNumbered(_ context.Context, inv *model.Invoice) error {
	var last int64
	for _, existing := range r.invoices {
		if existing.PointOfSaleID == inv.PointOfSaleID && existing.InvoiceType == inv.InvoiceType && existing.Number > last {
			last = existing.Number
		}
	}
	inv.Number = last + 1
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.CreatedAt = time.Now()
	cloned := *inv
	r.invoices[inv.ID] = &cloned
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *inv
	return &cloned, nil
}

func (r *stubInvoiceRepo) LastNumber(_ context.Context, pointOfSaleID uuid.UUID, invoiceType int) (int64, error) {
	var last int64
	for _, inv := range r.invoices {
		if inv.PointOfSaleID == pointOfSaleID && inv.InvoiceType == invoiceType && inv.Number > last {
			last = inv.Number
		}
	}
	return last, nil
}

func (r *stubInvoiceRepo) UpdateOutcome(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	inv, ok := r.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			inv.Status = v.(string)
		case "cae":
			s := v.(string)
			inv.CAE = &s
		case "cae_expiration":
			t := v.(time.Time)
			inv.CAEExpiration = &t
		case "arca_response":
			s := v.(string)
			inv.ArcaResponse = &s
		case "metadata":
			s := v.(string)
			inv.Metadata = &s
		}
	}
	return nil
}

func (r *stubInvoiceRepo) List(_ context.Context, userID uuid.UUID, _ dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.UserID == userID {
			out = append(out, *inv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubInvoiceRepo) Statistics(_ context.Context, userID uuid.UUID) (*dto.InvoiceStatistics, error) {
	stats := &dto.InvoiceStatistics{TotalAmount: decimal.Zero}
	for _, inv := range r.invoices {
		if inv.UserID != userID {
			continue
		}
		stats.TotalInvoices++
		switch inv.Status {
		case model.InvoiceStatusApproved:
			stats.ApprovedInvoices++
			stats.TotalAmount = stats.TotalAmount.Add(inv.TotalAmount)
		case model.InvoiceStatusRejected:
			stats.RejectedInvoices++
		case model.InvoiceStatusPending:
			stats.PendingInvoices++
		case model.InvoiceStatusError:
			stats.ErrorInvoices++
		}
	}
	return stats, nil
}

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

type stubClientRepo struct {
	clients map[uuid.UUID]*model.Client
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (r *stubClientRepo) Create(_ context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClientRepo) FindByUserAndTaxID(_ context.Context, userID uuid.UUID, taxID string) (*model.Client, error) {
	for _, c := range r.clients {
		if c.UserID == userID && c.TaxID == taxID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClientRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]model.Client, int64, error) {
	var out []model.Client
	for _, c := range r.clients {
		if c.UserID == userID && c.IsActive {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubClientRepo) Update(_ context.Context, c *model.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if c, ok := r.clients[id]; ok {
		c.IsActive = false
	}
	return nil
}

var _ repository.ClientRepository = (*stubClientRepo)(nil)

type stubPointOfSaleRepo struct {
	points map[uuid.UUID]*model.PointOfSale
}

func newStubPointOfSaleRepo() *stubPointOfSaleRepo {
	return &stubPointOfSaleRepo{points: make(map[uuid.UUID]*model.PointOfSale)}
}

func (r *stubPointOfSaleRepo) Create(_ context.Context, p *model.PointOfSale) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.points[p.ID] = p
	return nil
}

func (r *stubPointOfSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PointOfSale, error) {
	p, ok := r.points[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPointOfSaleRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.PointOfSale, error) {
	var out []model.PointOfSale
	for _, p := range r.points {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPointOfSaleRepo) DefaultForUser(_ context.Context, userID uuid.UUID) (*model.PointOfSale, error) {
	var best *model.PointOfSale
	for _, p := range r.points {
		if p.UserID == userID && p.IsActive {
			if best == nil || p.Number < best.Number {
				best = p
			}
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (r *stubPointOfSaleRepo) Update(_ context.Context, p *model.PointOfSale) error {
	r.points[p.ID] = p
	return nil
}

func (r *stubPointOfSaleRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if p, ok := r.points[id]; ok {
		p.IsActive = false
	}
	return nil
}

var _ repository.PointOfSaleRepository = (*stubPointOfSaleRepo)(nil)

// ── fixture ──────────────────────────────────────────────────────────────────

type invoiceFixture struct {
	svc       InvoiceService
	invoices  *stubInvoiceRepo
	points    *stubPointOfSaleRepo
	userID    uuid.UUID
	client    *model.Client
	pos       *model.PointOfSale
	exchanger *stubExchanger
	submitter *stubSubmitter
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	ctx := context.Background()
	userID := uuid.New()

	certRepo := newStubCertificateRepo()
	seedActiveCertificate(t, certRepo, userID, "20123456789")
	certs := NewCertificateService(certRepo)

	clients := newStubClientRepo()
	client := &model.Client{
		UserID: userID, TaxID: "20304050607", TaxIDType: "CUIT",
		Name: "Cliente SA", IVACondition: 1, IsActive: true,
	}
	require.NoError(t, clients.Create(ctx, client))

	points := newStubPointOfSaleRepo()
	pos := &model.PointOfSale{UserID: userID, Number: 1, Name: "Principal", IsActive: true}
	require.NoError(t, points.Create(ctx, pos))

	exchanger := &stubExchanger{token: &infra.AuthToken{
		Token: "tok", Sign: "sig", ExpiresAt: time.Now().Add(tokenLifetime),
	}}
	submitter := &stubSubmitter{result: &infra.SubmissionResult{
		Approved: true, CAE: "71234567890123", CAEExpiration: "20261015",
	}}
	arca := NewArcaService(certs, exchanger, submitter, cache.NewMemoryTokenCache())

	invoices := newStubInvoiceRepo()
	return &invoiceFixture{
		svc:       NewInvoiceService(invoices, clients, points, certs, arca),
		invoices:  invoices,
		points:    points,
		userID:    userID,
		client:    client,
		pos:       pos,
		exchanger: exchanger,
		submitter: submitter,
	}
}

func (f *invoiceFixture) request() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		ClientID:    f.client.ID.String(),
		InvoiceType: 11,
		Concept:     1,
		Items: []dto.InvoiceItemRequest{{
			Description: "consulting",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString("100"),
			VATRate:     decimal.RequireFromString("21"),
		}},
	}
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestCreateInvoice_Approved(t *testing.T) {
	f := newInvoiceFixture(t)

	resp, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.NoError(t, err)

	assert.Equal(t, model.InvoiceStatusApproved, resp.Status)
	assert.Equal(t, int64(1), resp.Number)
	require.NotNil(t, resp.CAE)
	assert.Equal(t, "71234567890123", *resp.CAE)
	require.NotNil(t, resp.CAEExpiration)
	assert.Equal(t, "2026-10-15", *resp.CAEExpiration)
	assert.True(t, decimal.RequireFromString("121").Equal(resp.TotalAmount))
}

func TestCreateInvoice_SequentialNumbers(t *testing.T) {
	f := newInvoiceFixture(t)

	first, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.NoError(t, err)
	second, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
}

func TestCreateInvoice_RejectedIsNotAnError(t *testing.T) {
	f := newInvoiceFixture(t)
	f.submitter.result = &infra.SubmissionResult{
		Approved: false,
		Errors:   []infra.ArcaError{{Code: 10016, Message: "invalid document"}},
	}

	resp, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.NoError(t, err)

	assert.Equal(t, model.InvoiceStatusRejected, resp.Status)
	assert.Nil(t, resp.CAE)

	stored, err := f.invoices.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusRejected, stored.Status)
	require.NotNil(t, stored.ArcaResponse)
	assert.Contains(t, *stored.ArcaResponse, "10016")
}

func TestCreateInvoice_GatewayDownPersistsError(t *testing.T) {
	f := newInvoiceFixture(t)
	f.submitter.err = errors.New("connection refused")

	_, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.ErrorIs(t, err, ErrGatewayUnavailable)

	// The PENDING row was inserted and flipped to ERROR with the cause recorded
	require.Len(t, f.invoices.invoices, 1)
	for _, stored := range f.invoices.invoices {
		assert.Equal(t, model.InvoiceStatusError, stored.Status)
		require.NotNil(t, stored.Metadata)
		var meta map[string]string
		require.NoError(t, json.Unmarshal([]byte(*stored.Metadata), &meta))
		assert.Contains(t, meta["error"], "connection refused")
	}
}

func TestCreateInvoice_InvalidVATRateLeavesNoRecord(t *testing.T) {
	f := newInvoiceFixture(t)
	req := f.request()
	req.Items[0].VATRate = decimal.RequireFromString("15")

	_, err := f.svc.CreateInvoice(context.Background(), f.userID, req)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.invoices.invoices, "validation failures must not burn a number")
}

func TestCreateInvoice_DefaultPointOfSale(t *testing.T) {
	f := newInvoiceFixture(t)
	secondary := &model.PointOfSale{UserID: f.userID, Number: 5, Name: "Sucursal", IsActive: true}
	require.NoError(t, f.points.Create(context.Background(), secondary))

	resp, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.NoError(t, err)
	assert.Equal(t, f.pos.ID.String(), resp.PointOfSaleID, "lowest active number wins")
}

func TestCreateInvoice_InactiveClient(t *testing.T) {
	f := newInvoiceFixture(t)
	f.client.IsActive = false

	_, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateInvoice_ForeignClientIsNotFound(t *testing.T) {
	f := newInvoiceFixture(t)

	req := f.request()
	req.ClientID = uuid.NewString()
	_, err := f.svc.CreateInvoice(context.Background(), f.userID, req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateInvoice_ServiceDatesDefaultToIssueDate(t *testing.T) {
	f := newInvoiceFixture(t)

	req := f.request()
	req.Concept = 2
	issue := "2026-08-27"
	req.IssueDate = &issue

	resp, err := f.svc.CreateInvoice(context.Background(), f.userID, req)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusApproved, resp.Status)

	stored, err := f.invoices.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	require.NotNil(t, stored.ServiceFrom)
	require.NotNil(t, stored.ServiceTo)
	assert.Equal(t, "2026-08-27", stored.ServiceFrom.Format("2006-01-02"))
	assert.Equal(t, "2026-08-27", stored.ServiceTo.Format("2006-01-02"))
}

func TestRetryInvoice(t *testing.T) {
	f := newInvoiceFixture(t)
	f.submitter.err = errors.New("connection refused")

	_, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.ErrorIs(t, err, ErrGatewayUnavailable)

	var failedID uuid.UUID
	for id := range f.invoices.invoices {
		failedID = id
	}

	// Gateway recovers; the retry reuses the already assigned number
	f.submitter.err = nil
	f.submitter.result = &infra.SubmissionResult{Approved: true, CAE: "71234567890123", CAEExpiration: "20261015"}

	resp, err := f.svc.RetryInvoice(context.Background(), f.userID, failedID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusApproved, resp.Status)
	assert.Equal(t, int64(1), resp.Number)
	require.Len(t, f.invoices.invoices, 1, "retry must not create a new row")
}

func TestRetryInvoice_OnlyErrorStatus(t *testing.T) {
	f := newInvoiceFixture(t)

	resp, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.NoError(t, err)

	_, err = f.svc.RetryInvoice(context.Background(), f.userID, uuid.MustParse(resp.ID))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetInvoice_Ownership(t *testing.T) {
	f := newInvoiceFixture(t)

	resp, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.NoError(t, err)

	_, err = f.svc.GetInvoice(context.Background(), uuid.New(), uuid.MustParse(resp.ID))
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.svc.GetInvoice(context.Background(), f.userID, uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)
}

func TestStatistics(t *testing.T) {
	f := newInvoiceFixture(t)

	_, err := f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.NoError(t, err)

	f.submitter.result = &infra.SubmissionResult{Approved: false, Errors: []infra.ArcaError{{Code: 1, Message: "no"}}}
	_, err = f.svc.CreateInvoice(context.Background(), f.userID, f.request())
	require.NoError(t, err)

	stats, err := f.svc.Statistics(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalInvoices)
	assert.Equal(t, int64(1), stats.ApprovedInvoices)
	assert.Equal(t, int64(1), stats.RejectedInvoices)
	assert.True(t, decimal.RequireFromString("121").Equal(stats.TotalAmount))
}
