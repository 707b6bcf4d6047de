// Package refdata holds the static ARCA/AFIP reference tables (invoice types,
// VAT rates, document types, concepts, currencies, IVA conditions) and the
// lookup helpers used to validate invoice input. The data follows the AFIP
// web-services specification and changes rarely, so it lives in code.
package refdata

import (
	"strings"

	"github.com/shopspring/decimal"
)

type InvoiceType struct {
	ID       int    `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"` // factura | nota_credito | nota_debito | recibo
}

type VATRate struct {
	ID   int             `json:"id"`
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

type DocumentType struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type ConceptType struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type IVACondition struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Concept codes used across the issuance pipeline.
const (
	ConceptProducts = 1
	ConceptServices = 2
	ConceptMixed    = 3
)

var InvoiceTypes = []InvoiceType{
	{ID: 1, Code: "FA", Name: "Factura A", Category: "factura"},
	{ID: 6, Code: "FB", Name: "Factura B", Category: "factura"},
	{ID: 11, Code: "FC", Name: "Factura C", Category: "factura"},
	{ID: 51, Code: "FM", Name: "Factura M", Category: "factura"},
	{ID: 201, Code: "FE", Name: "Factura E", Category: "factura"},
	{ID: 3, Code: "NCA", Name: "Nota de Crédito A", Category: "nota_credito"},
	{ID: 8, Code: "NCB", Name: "Nota de Crédito B", Category: "nota_credito"},
	{ID: 13, Code: "NCC", Name: "Nota de Crédito C", Category: "nota_credito"},
	{ID: 53, Code: "NCM", Name: "Nota de Crédito M", Category: "nota_credito"},
	{ID: 2, Code: "NDA", Name: "Nota de Débito A", Category: "nota_debito"},
	{ID: 7, Code: "NDB", Name: "Nota de Débito B", Category: "nota_debito"},
	{ID: 12, Code: "NDC", Name: "Nota de Débito C", Category: "nota_debito"},
	{ID: 52, Code: "NDM", Name: "Nota de Débito M", Category: "nota_debito"},
	{ID: 4, Code: "RECA", Name: "Recibo A", Category: "recibo"},
	{ID: 9, Code: "RECB", Name: "Recibo B", Category: "recibo"},
	{ID: 15, Code: "RECC", Name: "Recibo C", Category: "recibo"},
}

// VATRates: the authority accepts exactly these aliquots.
var VATRates = []VATRate{
	{ID: 3, Code: "0", Rate: decimal.Zero},
	{ID: 9, Code: "2.5", Rate: decimal.NewFromFloat(2.5)},
	{ID: 8, Code: "5", Rate: decimal.NewFromInt(5)},
	{ID: 4, Code: "10.5", Rate: decimal.NewFromFloat(10.5)},
	{ID: 5, Code: "21", Rate: decimal.NewFromInt(21)},
	{ID: 6, Code: "27", Rate: decimal.NewFromInt(27)},
}

var DocumentTypes = []DocumentType{
	{ID: 80, Code: "CUIT", Name: "CUIT"},
	{ID: 86, Code: "CUIL", Name: "CUIL"},
	{ID: 87, Code: "CDI", Name: "CDI"},
	{ID: 89, Code: "LE", Name: "Libreta de Enrolamiento"},
	{ID: 90, Code: "LC", Name: "Libreta Cívica"},
	{ID: 91, Code: "CI_EXT", Name: "Cédula de Identidad Extranjera"},
	{ID: 94, Code: "PASAPORTE", Name: "Pasaporte"},
	{ID: 96, Code: "DNI", Name: "DNI"},
	{ID: 99, Code: "SIN_IDENTIFICAR", Name: "Consumidor Final"},
}

var ConceptTypes = []ConceptType{
	{ID: ConceptProducts, Code: "PRODUCTOS", Name: "Productos"},
	{ID: ConceptServices, Code: "SERVICIOS", Name: "Servicios"},
	{ID: ConceptMixed, Code: "MIXTO", Name: "Productos y Servicios"},
}

var Currencies = []Currency{
	{Code: "ARS", Name: "Peso Argentino", Symbol: "$"},
	{Code: "USD", Name: "Dólar Estadounidense", Symbol: "US$"},
	{Code: "EUR", Name: "Euro", Symbol: "€"},
	{Code: "BRL", Name: "Real Brasileño", Symbol: "R$"},
	{Code: "CLP", Name: "Peso Chileno", Symbol: "CLP$"},
	{Code: "UYU", Name: "Peso Uruguayo", Symbol: "UYU$"},
}

var IVAConditions = []IVACondition{
	{ID: 1, Code: "RI", Name: "Responsable Inscripto"},
	{ID: 2, Code: "RM", Name: "Responsable Monotributo"},
	{ID: 4, Code: "CF", Name: "Consumidor Final"},
	{ID: 5, Code: "EX", Name: "Exento"},
	{ID: 6, Code: "RM_EX", Name: "Monotributo Social"},
	{ID: 9, Code: "NO_RESP", Name: "No Responsable"},
	{ID: 10, Code: "IVA_LIB", Name: "IVA Liberado - Ley 19.640"},
	{ID: 13, Code: "IVA_NO_ALCANZADO", Name: "IVA No Alcanzado"},
}

// ─── Lookups ─────────────────────────────────────────────────────────────────

func InvoiceTypeByID(id int) (InvoiceType, bool) {
	for _, t := range InvoiceTypes {
		if t.ID == id {
			return t, true
		}
	}
	return InvoiceType{}, false
}

func DocumentTypeByCode(code string) (DocumentType, bool) {
	for _, t := range DocumentTypes {
		if strings.EqualFold(t.Code, code) {
			return t, true
		}
	}
	return DocumentType{}, false
}

func CurrencyByCode(code string) (Currency, bool) {
	for _, c := range Currencies {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Currency{}, false
}

func IVAConditionByID(id int) (IVACondition, bool) {
	for _, c := range IVAConditions {
		if c.ID == id {
			return c, true
		}
	}
	return IVACondition{}, false
}

// ─── Validation helpers ──────────────────────────────────────────────────────

func IsValidInvoiceType(id int) bool {
	_, ok := InvoiceTypeByID(id)
	return ok
}

func IsValidConcept(id int) bool {
	return id == ConceptProducts || id == ConceptServices || id == ConceptMixed
}

func IsValidCurrency(code string) bool {
	_, ok := CurrencyByCode(code)
	return ok
}

func IsValidIVACondition(id int) bool {
	_, ok := IVAConditionByID(id)
	return ok
}

// IsValidVATRate reports whether rate is one of the aliquots ARCA recognizes.
func IsValidVATRate(rate decimal.Decimal) bool {
	for _, r := range VATRates {
		if r.Rate.Equal(rate) {
			return true
		}
	}
	return false
}

// DocumentTypeID maps a document-type code to its ARCA numeric id.
// Unknown codes fall back to DNI (96), mirroring the authority's default.
func DocumentTypeID(code string) int {
	if t, ok := DocumentTypeByCode(code); ok {
		return t.ID
	}
	return 96
}
