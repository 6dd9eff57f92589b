// =============================================================================
// Bartscher Feed Generator - Product Transformer
// =============================================================================
//
// This module turns one spreadsheet record into one feed product. It is a
// pure function of the record, the run's exchange rate, the availability
// map and the configured labels:
//
//   - Name:         "<Manufacturer> | <Název>"
//   - Prices:       EUR x rate, rounded to 2 places
//   - Images:       URL cells only, in column order
//   - Descriptions: HTML and plain text built from the description text,
//                   attributes and documents
//   - Stock:        in-stock or lead-time label from the availability map
//
// =============================================================================

package converter

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/bartscher-feed/internal/config"
	"github.com/ginjaninja78/bartscher-feed/internal/types"
)

// Transformer builds OutputProducts.
type Transformer struct {
	product config.ProductSettings
}

// NewTransformer creates a Transformer with the given labels.
func NewTransformer(product config.ProductSettings) *Transformer {
	return &Transformer{product: product}
}

// Transform converts a record.
//
// PARAMETERS:
//   - rec: The spreadsheet record.
//   - rate: The EUR->CZK rate shared by every product of the run.
//   - availability: Stock levels by product code.
//
// RETURNS:
//   - The feed product. Transform never fails; all inputs are validated by
//     the loader and the fetchers.
func (t *Transformer) Transform(rec types.ProductRecord, rate decimal.Decimal, availability types.AvailabilityMap) types.OutputProduct {
	name := strings.TrimSpace(t.product.Manufacturer + " | " + rec.Name)
	short := ShortDescription(name, t.product.Manufacturer)
	text := strings.TrimSpace(rec.Description)

	attrs := filterAttributes(rec.Attributes)
	docs := filterDocuments(rec.Documents)

	level := availability.Stock(rec.Code)
	stock := t.product.OutOfStockLabel
	if level > 0 {
		stock = t.product.InStockLabel
	}

	return types.OutputProduct{
		Code:            rec.Code,
		EAN:             rec.EAN,
		Name:            name,
		Manufacturer:    t.product.Manufacturer,
		PurchasePrice:   ConvertPrice(rec.PurchaseEUR, rate),
		SalePrice:       ConvertPrice(rec.SaleEUR, rate),
		Images:          filterImages(rec.Images),
		HTMLDescription: BuildHTMLDescription(name, short, text, attrs, docs, t.product.Storefront),
		TextDescription: BuildTextDescription(short, text, attrs),
		Stock:           stock,
		Availability:    t.product.LeadTimeLabel,
		StockLevel:      level,
	}
}

// TransformAll converts records in order.
func (t *Transformer) TransformAll(records []types.ProductRecord, rate decimal.Decimal, availability types.AvailabilityMap) []types.OutputProduct {
	products := make([]types.OutputProduct, 0, len(records))
	for _, rec := range records {
		products = append(products, t.Transform(rec, rate, availability))
	}
	return products
}
