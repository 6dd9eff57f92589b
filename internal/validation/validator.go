// =============================================================================
// Bartscher Feed Generator - Validation Engine
// =============================================================================
//
// This module runs sanity checks over the loaded spreadsheet records. The
// checks never stop a run: each finding is a warning that is logged and
// counted in the run summary.
//
// CHECKS:
//   - gtin:           length 8, 12, 13 or 14 digits with a valid check digit
//   - sale_price:     sale price below purchase price
//   - images:         no image cell holds a URL
//   - name:           empty product name
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/bartscher-feed/internal/types"
)

// Rule names.
const (
	RuleGTIN      = "gtin"
	RuleSalePrice = "sale_price"
	RuleImages    = "images"
	RuleName      = "name"
)

// =============================================================================
// VALIDATION WARNING TYPES
// =============================================================================

// Warning represents a single validation finding.
type Warning struct {
	// Rule is the check that produced the warning.
	Rule string

	// Code is the product code.
	Code string

	// Row is the spreadsheet row (for error reporting).
	Row int

	// Value is the offending value, if any.
	Value string

	// Message is a human-readable description.
	Message string
}

// String formats the warning for display.
func (w Warning) String() string {
	s := fmt.Sprintf("row %d, product %s: %s", w.Row, w.Code, w.Message)
	if w.Value != "" {
		s += fmt.Sprintf(" (value: '%s')", w.Value)
	}
	return s
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result contains the results of validation.
type Result struct {
	// Warnings in record order.
	Warnings []Warning

	// RecordsValidated is the number of records checked.
	RecordsValidated int
}

// CountByRule returns the number of warnings per rule.
func (r *Result) CountByRule() map[string]int {
	counts := make(map[string]int)
	for _, w := range r.Warnings {
		counts[w.Rule]++
	}
	return counts
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks every record.
func Validate(records []types.ProductRecord) *Result {
	result := &Result{}
	for i := range records {
		result.Warnings = append(result.Warnings, ValidateRecord(&records[i])...)
		result.RecordsValidated++
	}
	return result
}

// ValidateRecord checks a single record.
func ValidateRecord(rec *types.ProductRecord) []Warning {
	var warnings []Warning

	warn := func(rule, value, format string, args ...interface{}) {
		warnings = append(warnings, Warning{
			Rule:    rule,
			Code:    rec.Code,
			Row:     rec.Row,
			Value:   value,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(rec.Name) == "" {
		warn(RuleName, "", "product name is empty")
	}

	if rec.EAN != "" {
		if msg := checkGTIN(rec.EAN); msg != "" {
			warn(RuleGTIN, rec.EAN, "%s", msg)
		}
	}

	if rec.SaleEUR.LessThan(rec.PurchaseEUR) {
		warn(RuleSalePrice, rec.SaleEUR.String(), "sale price is below purchase price %s", rec.PurchaseEUR)
	}

	hasImage := false
	for _, img := range rec.Images {
		if strings.HasPrefix(strings.TrimSpace(img), "http") {
			hasImage = true
			break
		}
	}
	if !hasImage {
		warn(RuleImages, "", "product has no image URL")
	}

	return warnings
}

// =============================================================================
// GTIN VALIDATION
// =============================================================================

// checkGTIN validates a GTIN-8, GTIN-12 (UPC), GTIN-13 (EAN) or GTIN-14.
// It returns an empty string for a valid code.
func checkGTIN(gtin string) string {
	for _, r := range gtin {
		if r < '0' || r > '9' {
			return "GTIN must contain digits only"
		}
	}

	switch len(gtin) {
	case 8, 12, 13, 14:
	default:
		return fmt.Sprintf("GTIN has %d digits, want 8, 12, 13 or 14", len(gtin))
	}

	if want := gtinCheckDigit(gtin[:len(gtin)-1]); int(gtin[len(gtin)-1]-'0') != want {
		return fmt.Sprintf("GTIN check digit should be %d", want)
	}
	return ""
}

// gtinCheckDigit computes the check digit for the payload digits. Weights
// alternate 3, 1, 3, ... starting from the rightmost payload digit.
func gtinCheckDigit(payload string) int {
	sum := 0
	weight := 3
	for i := len(payload) - 1; i >= 0; i-- {
		sum += int(payload[i]-'0') * weight
		weight = 4 - weight
	}
	return (10 - sum%10) % 10
}

// =============================================================================
// WARNING FORMATTING
// =============================================================================

// FormatWarnings formats warnings for display or logging.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return "No validation warnings."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d warning(s):\n\n", len(warnings)))

	for i, w := range warnings {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, w.String()))
	}

	return builder.String()
}
