// =============================================================================
// Bartscher Feed Generator - XML Writer Module
// =============================================================================
//
// This module serializes the transformed products into the e-shop import
// feed and writes it to disk.
//
// XML STRUCTURE:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <products>
//     <product>
//       <kod_produktu>BX100</kod_produktu>
//       <ean>4015613000000</ean>
//       <nazev_vyrobku>Bartscher | Varná konvice</nazev_vyrobku>
//       <vyrobce>Bartscher</vyrobce>
//       <nakupni_cena>2500.0</nakupni_cena>
//       <prodejni_cena>2000.0</prodejni_cena>
//       <obrazek>https://...</obrazek>     <!-- zero or more -->
//       <popis_html>&lt;h2&gt;...</popis_html>
//       <popis>...</popis>
//       <sklad>Skladem 2 ks</sklad>
//       <dostupnost>do 5 dní</dostupnost>
//     </product>
//   </products>
//
// Products keep their input order and child elements keep the order above.
// Empty values are written as empty elements, never omitted.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/bartscher-feed/internal/types"
	"github.com/ginjaninja78/bartscher-feed/pkg/utils"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// RootElement is the name of the document element.
	// Default: "products"
	RootElement string

	// ProductElement is the name of each product element.
	// Default: "product"
	ProductElement string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:         "  ",
		RootElement:    "products",
		ProductElement: "product",
	}
}

// element is a leaf element of a product.
type element struct {
	name  string
	value string
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate creates the feed document.
//
// PARAMETERS:
//   - products: The products in output order.
//
// RETURNS:
//   - The UTF-8 document including the XML declaration.
//   - An error if a value contains characters XML cannot represent.
func Generate(products []types.OutputProduct) ([]byte, error) {
	return GenerateWithOptions(products, DefaultGenerateOptions())
}

// GenerateWithOptions creates the feed document with custom options.
func GenerateWithOptions(products []types.OutputProduct, options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer

	buffer.WriteString(xml.Header)

	if len(products) == 0 {
		buffer.WriteString("<" + options.RootElement + "/>\n")
		return buffer.Bytes(), nil
	}

	buffer.WriteString("<" + options.RootElement + ">\n")

	for _, p := range products {
		elements := productElements(p)
		for _, e := range elements {
			if err := checkChars(e.value); err != nil {
				return nil, fmt.Errorf("failed to encode <%s> of product %q: %w", e.name, p.Code, err)
			}
		}

		writeIndent(&buffer, options.Indent, 1)
		buffer.WriteString("<" + options.ProductElement + ">\n")
		for _, e := range elements {
			writeElement(&buffer, e, options.Indent, 2)
		}
		writeIndent(&buffer, options.Indent, 1)
		buffer.WriteString("</" + options.ProductElement + ">\n")
	}

	buffer.WriteString("</" + options.RootElement + ">\n")

	return buffer.Bytes(), nil
}

// productElements lists the children of one <product> in output order.
func productElements(p types.OutputProduct) []element {
	elements := []element{
		{"kod_produktu", p.Code},
		{"ean", p.EAN},
		{"nazev_vyrobku", p.Name},
		{"vyrobce", p.Manufacturer},
		{"nakupni_cena", FormatPrice(p.PurchasePrice)},
		{"prodejni_cena", FormatPrice(p.SalePrice)},
	}
	for _, img := range p.Images {
		elements = append(elements, element{"obrazek", img})
	}
	return append(elements,
		element{"popis_html", p.HTMLDescription},
		element{"popis", p.TextDescription},
		element{"sklad", p.Stock},
		element{"dostupnost", p.Availability},
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// FormatPrice writes the shortest decimal form with at least one fractional
// digit: 2500 -> "2500.0", 12.50 -> "12.5", 12.35 -> "12.35".
func FormatPrice(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// writeIndent writes level copies of indent.
func writeIndent(buffer *bytes.Buffer, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}
}

// writeElement writes a leaf element. Empty values become <name/>.
func writeElement(buffer *bytes.Buffer, e element, indent string, level int) {
	writeIndent(buffer, indent, level)

	if e.value == "" {
		buffer.WriteString("<" + e.name + "/>\n")
		return
	}

	buffer.WriteString("<" + e.name + ">")
	buffer.WriteString(escapeXML(e.value))
	buffer.WriteString("</" + e.name + ">\n")
}

// escapeXML escapes special characters for XML text. Newlines are kept.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '\r':
			buffer.WriteString("&#xD;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// checkChars rejects runes that are not allowed in XML 1.0.
func checkChars(s string) error {
	for _, r := range s {
		switch {
		case r == '\t', r == '\n', r == '\r':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return fmt.Errorf("invalid character %U", r)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// WriteFile writes the document to path atomically, creating the parent
// directory. A failed write leaves any previous file untouched.
func WriteFile(path string, doc []byte) error {
	if err := utils.WriteFileAtomic(path, doc, 0644); err != nil {
		return fmt.Errorf("failed to write feed: %w", err)
	}
	return nil
}
