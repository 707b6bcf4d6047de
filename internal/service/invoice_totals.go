package service

import (
	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"

	"github.com/shopspring/decimal"
)

// InvoiceTotals is the aggregate money breakdown of an invoice.
// An item with a zero VAT rate contributes to Exempt; everything else splits
// into Net plus VAT. Total = Net + VAT + Exempt. The exchange rate is stored
// on the invoice but never applied to amounts.
type InvoiceTotals struct {
	Net    decimal.Decimal
	VAT    decimal.Decimal
	Exempt decimal.Decimal
	Total  decimal.Decimal
}

// CalculatedItem is a line item with its derived amounts filled in.
type CalculatedItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
	VATAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// CalculateTotals derives per-item amounts and the invoice aggregates.
// Aggregates accumulate unrounded and are rounded once at the end to 2
// decimals, half away from zero, so per-line rounding drift never leaks into
// the invoice totals.
func CalculateTotals(items []dto.InvoiceItemRequest) ([]CalculatedItem, InvoiceTotals) {
	calculated := make([]CalculatedItem, 0, len(items))
	net := decimal.Zero
	vat := decimal.Zero
	exempt := decimal.Zero

	for _, item := range items {
		base := item.Quantity.Mul(item.UnitPrice)
		lineVAT := base.Mul(item.VATRate).Div(hundred)

		if item.VATRate.IsZero() {
			exempt = exempt.Add(base)
		} else {
			net = net.Add(base)
			vat = vat.Add(lineVAT)
		}

		calculated = append(calculated, CalculatedItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			VATAmount:   lineVAT.Round(2),
			TotalAmount: base.Add(lineVAT).Round(2),
		})
	}

	totals := InvoiceTotals{
		Net:    net.Round(2),
		VAT:    vat.Round(2),
		Exempt: exempt.Round(2),
	}
	totals.Total = totals.Net.Add(totals.VAT).Add(totals.Exempt)
	return calculated, totals
}
