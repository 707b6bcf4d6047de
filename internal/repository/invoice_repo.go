package repository

import (
	"context"
	"errors"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNumberingConflict is returned when CreateNumbered exhausts its retry
// budget because concurrent writers kept winning the same sequence slot.
// The whole operation is safe to retry from the caller.
var ErrNumberingConflict = errors.New("invoice numbering conflict: retries exhausted")

// maxNumberingAttempts bounds the read-max-then-insert retry loop.
const maxNumberingAttempts = 5

type InvoiceRepository interface {
	// CreateNumbered assigns the next sequential number for the invoice's
	// (pointOfSaleID, invoiceType) scope and inserts the row with its items
	// atomically. Safe under concurrency: the composite unique index makes the
	// losing writer fail with a duplicate key, and the loop re-reads and retries.
	CreateNumbered(ctx context.Context, inv *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	LastNumber(ctx context.Context, pointOfSaleID uuid.UUID, invoiceType int) (int64, error)
	// UpdateOutcome persists the reconciled submission result (status, cae, payloads).
	UpdateOutcome(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	List(ctx context.Context, userID uuid.UUID, filter dto.InvoiceFilter) ([]model.Invoice, int64, error)
	Statistics(ctx context.Context, userID uuid.UUID) (*dto.InvoiceStatistics, error)
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

// runNumbered drives one read-max-then-insert attempt at a time. Each call of
// insert must re-read the current max before inserting, so a writer that lost
// the unique-index race picks up the winner's number on the next pass.
func runNumbered(insert func() error) error {
	for attempt := 0; attempt < maxNumberingAttempts; attempt++ {
		err := insert()
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return err
	}
	return ErrNumberingConflict
}

func (r *invoiceRepo) CreateNumbered(ctx context.Context, inv *model.Invoice) error {
	return runNumbered(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var last int64
			err := tx.Model(&model.Invoice{}).
				Where("point_of_sale_id = ? AND invoice_type = ?", inv.PointOfSaleID, inv.InvoiceType).
				Select("COALESCE(MAX(number), 0)").
				Scan(&last).Error
			if err != nil {
				return err
			}
			inv.Number = last + 1
			return tx.Create(inv).Error
		})
	})
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Preload("Items").First(&inv, id).Error
	return &inv, err
}

func (r *invoiceRepo) LastNumber(ctx context.Context, pointOfSaleID uuid.UUID, invoiceType int) (int64, error) {
	var last int64
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("point_of_sale_id = ? AND invoice_type = ?", pointOfSaleID, invoiceType).
		Select("COALESCE(MAX(number), 0)").
		Scan(&last).Error
	return last, err
}

func (r *invoiceRepo) UpdateOutcome(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("id = ?", id).Updates(fields).Error
}

func (r *invoiceRepo) List(ctx context.Context, userID uuid.UUID, filter dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("user_id = ?", userID)

	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.PointOfSaleID != "" {
		q = q.Where("point_of_sale_id = ?", filter.PointOfSaleID)
	}
	if filter.InvoiceType != 0 {
		q = q.Where("invoice_type = ?", filter.InvoiceType)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != "" {
		q = q.Where("issue_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q = q.Where("issue_date <= ?", filter.DateTo)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepo) Statistics(ctx context.Context, userID uuid.UUID) (*dto.InvoiceStatistics, error) {
	stats := &dto.InvoiceStatistics{TotalAmount: decimal.Zero}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("user_id = ?", userID).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		stats.TotalInvoices += c.Count
		switch c.Status {
		case model.InvoiceStatusApproved:
			stats.ApprovedInvoices = c.Count
		case model.InvoiceStatusRejected:
			stats.RejectedInvoices = c.Count
		case model.InvoiceStatusPending:
			stats.PendingInvoices = c.Count
		case model.InvoiceStatusError:
			stats.ErrorInvoices = c.Count
		}
	}

	var totalAmount decimal.NullDecimal
	err = r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("user_id = ? AND status = ?", userID, model.InvoiceStatusApproved).
		Select("SUM(total_amount)").
		Scan(&totalAmount).Error
	if err != nil {
		return nil, err
	}
	if totalAmount.Valid {
		stats.TotalAmount = totalAmount.Decimal
	}
	return stats, nil
}
