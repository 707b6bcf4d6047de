package service

import (
	"testing"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(qty, price, rate string) dto.InvoiceItemRequest {
	return dto.InvoiceItemRequest{
		Description: "test item",
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
		VATRate:     decimal.RequireFromString(rate),
	}
}

func TestCalculateTotals_StandardRate(t *testing.T) {
	items, totals := CalculateTotals([]dto.InvoiceItemRequest{
		item("2", "100", "21"),
	})

	require.Len(t, items, 1)
	assert.True(t, decimal.RequireFromString("42").Equal(items[0].VATAmount), "item VAT: %s", items[0].VATAmount)
	assert.True(t, decimal.RequireFromString("242").Equal(items[0].TotalAmount), "item total: %s", items[0].TotalAmount)

	assert.True(t, decimal.RequireFromString("200").Equal(totals.Net))
	assert.True(t, decimal.RequireFromString("42").Equal(totals.VAT))
	assert.True(t, totals.Exempt.IsZero())
	assert.True(t, decimal.RequireFromString("242").Equal(totals.Total))
}

func TestCalculateTotals_ZeroRateGoesToExempt(t *testing.T) {
	_, totals := CalculateTotals([]dto.InvoiceItemRequest{
		item("1", "500", "0"),
	})

	assert.True(t, totals.Net.IsZero())
	assert.True(t, totals.VAT.IsZero())
	assert.True(t, decimal.RequireFromString("500").Equal(totals.Exempt))
	assert.True(t, decimal.RequireFromString("500").Equal(totals.Total))
}

func TestCalculateTotals_MixedItems(t *testing.T) {
	_, totals := CalculateTotals([]dto.InvoiceItemRequest{
		item("2", "100", "21"),
		item("1", "300", "10.5"),
		item("4", "25", "0"),
	})

	assert.True(t, decimal.RequireFromString("500").Equal(totals.Net), "net: %s", totals.Net)
	assert.True(t, decimal.RequireFromString("73.50").Equal(totals.VAT), "vat: %s", totals.VAT)
	assert.True(t, decimal.RequireFromString("100").Equal(totals.Exempt), "exempt: %s", totals.Exempt)
	assert.True(t, decimal.RequireFromString("673.50").Equal(totals.Total), "total: %s", totals.Total)
}

func TestCalculateTotals_RoundingAtTwoDecimals(t *testing.T) {
	// 3 × 33.33 = 99.99 net, VAT 20.9979 rounds to 21.00
	_, totals := CalculateTotals([]dto.InvoiceItemRequest{
		item("3", "33.33", "21"),
	})

	assert.True(t, decimal.RequireFromString("99.99").Equal(totals.Net), "net: %s", totals.Net)
	assert.True(t, decimal.RequireFromString("21.00").Equal(totals.VAT), "vat: %s", totals.VAT)
	assert.True(t, decimal.RequireFromString("120.99").Equal(totals.Total), "total: %s", totals.Total)
}

func TestCalculateTotals_HalfRoundsAwayFromZero(t *testing.T) {
	// 0.50 × 5% = 0.025 → 0.03
	items, _ := CalculateTotals([]dto.InvoiceItemRequest{
		item("1", "0.50", "5"),
	})

	require.Len(t, items, 1)
	assert.True(t, decimal.RequireFromString("0.03").Equal(items[0].VATAmount), "item VAT: %s", items[0].VATAmount)
}

func TestCalculateTotals_AggregatesRoundOnceAtTheEnd(t *testing.T) {
	// Two lines of 0.105 VAT each: per-line rounding would give 0.11 + 0.11 = 0.22,
	// accumulating first gives 0.21.
	_, totals := CalculateTotals([]dto.InvoiceItemRequest{
		item("1", "0.50", "21"),
		item("1", "0.50", "21"),
	})

	assert.True(t, decimal.RequireFromString("0.21").Equal(totals.VAT), "vat: %s", totals.VAT)
}

func TestCalculateTotals_Empty(t *testing.T) {
	items, totals := CalculateTotals(nil)

	assert.Empty(t, items)
	assert.True(t, totals.Total.IsZero())
}
