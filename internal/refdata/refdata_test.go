package refdata

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceTypeByID(t *testing.T) {
	ft, ok := InvoiceTypeByID(1)
	require.True(t, ok)
	assert.Equal(t, "Factura A", ft.Name)

	_, ok = InvoiceTypeByID(999)
	assert.False(t, ok)
}

func TestIsValidVATRate(t *testing.T) {
	for _, rate := range []string{"0", "2.5", "5", "10.5", "21", "27"} {
		assert.True(t, IsValidVATRate(decimal.RequireFromString(rate)), "rate %s", rate)
	}
	assert.False(t, IsValidVATRate(decimal.RequireFromString("15")))
	assert.False(t, IsValidVATRate(decimal.RequireFromString("21.5")))

	// Equality must be numeric, not textual
	assert.True(t, IsValidVATRate(decimal.RequireFromString("21.00")))
}

func TestIsValidConcept(t *testing.T) {
	assert.True(t, IsValidConcept(ConceptProducts))
	assert.True(t, IsValidConcept(ConceptServices))
	assert.True(t, IsValidConcept(ConceptMixed))
	assert.False(t, IsValidConcept(0))
	assert.False(t, IsValidConcept(4))
}

func TestCurrencyByCode_CaseInsensitive(t *testing.T) {
	c, ok := CurrencyByCode("usd")
	require.True(t, ok)
	assert.Equal(t, "USD", c.Code)

	assert.False(t, IsValidCurrency("XYZ"))
}

func TestDocumentTypeID(t *testing.T) {
	assert.Equal(t, 80, DocumentTypeID("CUIT"))
	assert.Equal(t, 96, DocumentTypeID("DNI"))
	// Unknown codes fall back to DNI
	assert.Equal(t, 96, DocumentTypeID("SOMETHING_ELSE"))
}

func TestIsValidIVACondition(t *testing.T) {
	assert.True(t, IsValidIVACondition(1))
	assert.True(t, IsValidIVACondition(4))
	assert.False(t, IsValidIVACondition(3))
	assert.False(t, IsValidIVACondition(99))
}
