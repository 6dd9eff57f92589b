// =============================================================================
// Bartscher Feed Generator - Spreadsheet Loader
// =============================================================================
//
// This module reads the vendor product spreadsheet (produktyBartscherCZ.xlsx)
// into ProductRecords. Row 1 holds the column headers; every following row is
// a product.
//
// SPREADSHEET STRUCTURE (default column names, configurable):
//
//   | kód   | Název        | gtin          | popisText | <purchase EUR> | <sale EUR> | Image1..6 | Atribut* | <docs> |
//   |-------|--------------|---------------|-----------|----------------|------------|-----------|----------|--------|
//   | 100012| Varná konvice| 4015613000000 | ...       | 100            | 80         | https://..| 2 kW     | https..|
//
// Columns are located by trimmed header name, never by position.
//
// RULES:
//   - kód, Název and both price columns are required; a missing header is a
//     schema error.
//   - Missing cells are empty strings.
//   - Fully empty rows and rows without a code are skipped.
//   - Prices accept spaces and a decimal comma. An empty, unparseable or
//     negative price is a parse error naming the row and column.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ginjaninja78/bartscher-feed/internal/config"
	"github.com/ginjaninja78/bartscher-feed/internal/feederr"
	"github.com/ginjaninja78/bartscher-feed/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the loader.
type Options struct {
	// Columns is the spreadsheet schema.
	Columns config.ColumnSettings

	// SheetName selects the worksheet. Empty means the first sheet.
	SheetName string

	// SkipInvalidRows logs and skips rows with bad prices instead of
	// failing the load.
	SkipInvalidRows bool
}

// Result is a loaded spreadsheet.
type Result struct {
	// Records are the products in sheet order.
	Records []types.ProductRecord

	// Skipped counts rows dropped because of invalid prices.
	Skipped int

	// Duplicates lists codes that appear on more than one row.
	Duplicates []string
}

// columnIndex is the resolved position of every configured column.
type columnIndex struct {
	code, name, gtin, description int
	purchase, sale                int
	images                        []int
	attributes                    []int
	documents                     []documentColumn
	headers                       []string
}

// documentColumn is a resolved documentation column. pos is -1 when the
// sheet lacks the column.
type documentColumn struct {
	pos   int
	label string
}

// =============================================================================
// LOADER
// =============================================================================

// Loader reads product spreadsheets.
type Loader struct {
	opts   Options
	logger *zap.Logger
}

// NewLoader creates a Loader.
func NewLoader(opts Options, logger *zap.Logger) *Loader {
	return &Loader{opts: opts, logger: logger}
}

// Load reads the spreadsheet at path.
//
// PARAMETERS:
//   - path: The .xlsx file.
//
// RETURNS:
//   - The product records and load statistics.
//   - A schema error if the file or a required column is missing, or a
//     parse error for an invalid price (unless SkipInvalidRows is set).
func (l *Loader) Load(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, feederr.Schema("open spreadsheet "+path, err)
	}
	defer f.Close()

	sheetName := l.opts.SheetName
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, feederr.Schema("open spreadsheet "+path, errors.New("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, feederr.Schema("read sheet "+sheetName, err)
	}

	return l.parseRows(rows)
}

// parseRows converts raw sheet rows. rows[0] is the header.
func (l *Loader) parseRows(rows [][]string) (*Result, error) {
	if len(rows) == 0 {
		return nil, feederr.Schema("read spreadsheet header", errors.New("sheet is empty"))
	}

	idx, err := resolveColumns(rows[0], l.opts.Columns)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	seen := make(map[string]int)

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		sheetRow := i + 1

		// Skip empty rows.
		if len(row) == 0 || isRowEmpty(row) {
			continue
		}

		record, err := parseRow(row, sheetRow, idx)
		if err != nil {
			if l.opts.SkipInvalidRows && feederr.Is(err, feederr.KindParse) {
				l.logger.Warn("skipping invalid row", zap.Int("row", sheetRow), zap.Error(err))
				result.Skipped++
				continue
			}
			return nil, err
		}
		if record == nil {
			l.logger.Debug("skipping row without code", zap.Int("row", sheetRow))
			continue
		}

		if first, ok := seen[record.Code]; ok {
			l.logger.Warn("duplicate product code",
				zap.String("code", record.Code),
				zap.Int("row", sheetRow),
				zap.Int("first_row", first),
			)
			result.Duplicates = append(result.Duplicates, record.Code)
		} else {
			seen[record.Code] = sheetRow
		}

		result.Records = append(result.Records, *record)
	}

	l.logger.Info("spreadsheet loaded",
		zap.Int("records", len(result.Records)),
		zap.Int("skipped", result.Skipped),
		zap.Int("duplicates", len(result.Duplicates)),
	)

	return result, nil
}

// resolveColumns maps the configured column names onto header positions.
func resolveColumns(header []string, cols config.ColumnSettings) (*columnIndex, error) {
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}

	find := func(name string) int {
		name = strings.TrimSpace(name)
		if name == "" {
			return -1
		}
		for i, h := range headers {
			if h == name {
				return i
			}
		}
		return -1
	}

	idx := &columnIndex{
		code:        find(cols.Code),
		name:        find(cols.Name),
		gtin:        find(cols.GTIN),
		description: find(cols.Description),
		purchase:    find(cols.PurchasePrice),
		sale:        find(cols.SalePrice),
		headers:     headers,
	}

	var missing []string
	for _, req := range []struct {
		name string
		pos  int
	}{
		{cols.Code, idx.code},
		{cols.Name, idx.name},
		{cols.PurchasePrice, idx.purchase},
		{cols.SalePrice, idx.sale},
	} {
		if req.pos < 0 {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return nil, feederr.Schema("resolve spreadsheet columns", fmt.Errorf("missing required columns %q", missing))
	}

	for _, name := range cols.Images {
		if pos := find(name); pos >= 0 {
			idx.images = append(idx.images, pos)
		}
	}

	for _, doc := range cols.Documents {
		idx.documents = append(idx.documents, documentColumn{pos: find(doc.Column), label: doc.Label})
	}

	if cols.AttributePrefix != "" {
		for i, h := range headers {
			if strings.HasPrefix(h, cols.AttributePrefix) {
				idx.attributes = append(idx.attributes, i)
			}
		}
	}

	return idx, nil
}

// parseRow extracts a ProductRecord from a single row. It returns nil, nil
// for rows without a code.
func parseRow(row []string, sheetRow int, idx *columnIndex) (*types.ProductRecord, error) {
	// Helper function to safely get a cell value.
	getCell := func(index int) string {
		if index >= 0 && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	code := normalizeIdentifier(getCell(idx.code))
	if code == "" {
		return nil, nil
	}

	record := &types.ProductRecord{
		Row:         sheetRow,
		Code:        code,
		Name:        getCell(idx.name),
		EAN:         normalizeIdentifier(getCell(idx.gtin)),
		Description: getCell(idx.description),
	}

	var err error
	record.PurchaseEUR, err = parsePrice(getCell(idx.purchase))
	if err != nil {
		return nil, feederr.Parse(fmt.Sprintf("row %d column %q", sheetRow, idx.headers[idx.purchase]), err)
	}
	record.SaleEUR, err = parsePrice(getCell(idx.sale))
	if err != nil {
		return nil, feederr.Parse(fmt.Sprintf("row %d column %q", sheetRow, idx.headers[idx.sale]), err)
	}

	for _, pos := range idx.images {
		record.Images = append(record.Images, getCell(pos))
	}

	for _, pos := range idx.attributes {
		record.Attributes = append(record.Attributes, types.Attribute{
			Name:  idx.headers[pos],
			Value: getCell(pos),
		})
	}

	for _, doc := range idx.documents {
		record.Documents = append(record.Documents, types.Document{
			Label: doc.label,
			URL:   getCell(doc.pos),
		})
	}

	return record, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parsePrice parses a EUR amount such as "1 234,50".
func parsePrice(raw string) (decimal.Decimal, error) {
	s := strings.NewReplacer(" ", "", "\u00a0", "").Replace(raw)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, errors.New("price is empty")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", raw)
	}
	return d, nil
}

// normalizeIdentifier turns integral numbers exported as "123.0" back into
// "123". Other values are returned unchanged.
func normalizeIdentifier(s string) string {
	head, tail, ok := strings.Cut(s, ".")
	if !ok || head == "" || strings.Trim(tail, "0") != "" {
		return s
	}
	for _, r := range head {
		if r < '0' || r > '9' {
			return s
		}
	}
	return head
}
