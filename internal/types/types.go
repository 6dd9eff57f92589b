// =============================================================================
// Bartscher Feed Generator - Shared Types
// =============================================================================
//
// This package contains the data model shared across the pipeline packages
// to avoid import cycles. Types defined here are used by:
//   - xlsxparser   (produces ProductRecord)
//   - availability (produces AvailabilityMap)
//   - converter    (turns ProductRecord into OutputProduct)
//   - validation   (inspects records and products)
//   - xmlwriter    (serializes OutputProduct)
//
// =============================================================================

package types

import "github.com/shopspring/decimal"

// =============================================================================
// SPREADSHEET RECORDS
// =============================================================================

// ProductRecord is one product row read from the vendor spreadsheet.
// It is read once and never mutated afterwards.
type ProductRecord struct {
	// Row is the 1-based sheet row the record was read from.
	Row int

	// Code is the vendor product code and the join key for availability.
	Code string

	// Name is the product name as written in the spreadsheet.
	Name string

	// EAN is the GTIN barcode. Empty when the cell is blank.
	EAN string

	// Description is the free-text description column. Empty when blank.
	Description string

	// PurchaseEUR is the purchase price in EUR.
	PurchaseEUR decimal.Decimal

	// SaleEUR is the sale price in EUR.
	SaleEUR decimal.Decimal

	// Images holds the raw cells of the image columns in column order.
	// Cells that are not URLs are filtered out by the transformer.
	Images []string

	// Attributes holds every attribute column in column order, including
	// columns whose value is empty.
	Attributes []Attribute

	// Documents holds the documentation columns in their fixed order.
	Documents []Document
}

// Attribute is a technical parameter taken from an attribute column.
type Attribute struct {
	Name  string
	Value string
}

// Document is a documentation link column.
type Document struct {
	// Label is the display string used in the HTML description.
	Label string

	// URL is the raw cell value.
	URL string
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// Stock levels used by the availability feed.
const (
	StockNone    = 0
	StockInStock = 2
)

// AvailabilityMap maps a product code to its stock level (StockNone or
// StockInStock). It is built once and read-only afterwards.
type AvailabilityMap map[string]int

// Stock returns the stock level for code. Codes that are not present in the
// feed are reported as StockNone.
func (m AvailabilityMap) Stock(code string) int {
	if m == nil {
		return StockNone
	}
	return m[code]
}

// InStock counts the codes with a positive stock level.
func (m AvailabilityMap) InStock() int {
	n := 0
	for _, v := range m {
		if v > 0 {
			n++
		}
	}
	return n
}

// =============================================================================
// OUTPUT
// =============================================================================

// OutputProduct is one <product> element of the generated feed.
type OutputProduct struct {
	Code         string
	EAN          string
	Name         string
	Manufacturer string

	// PurchasePrice and SalePrice are in CZK, rounded to 2 decimal places.
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal

	Images          []string
	HTMLDescription string
	TextDescription string

	// Stock is the quantity label written to <sklad>.
	Stock string

	// Availability is the lead-time label written to <dostupnost>.
	Availability string

	// StockLevel is the raw availability value. It is not serialized.
	StockLevel int
}
