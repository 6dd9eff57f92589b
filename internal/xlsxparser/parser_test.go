package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/ginjaninja78/bartscher-feed/internal/config"
	"github.com/ginjaninja78/bartscher-feed/internal/feederr"
)

// writeSheet saves rows to a new workbook and returns its path.
func writeSheet(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "products.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func columns() config.ColumnSettings {
	return config.Default().Columns
}

func header(extra ...interface{}) []interface{} {
	c := columns()
	h := []interface{}{c.Code, c.Name, c.GTIN, c.Description, c.PurchasePrice, c.SalePrice}
	return append(h, extra...)
}

func newLoader(t *testing.T, skip bool) *Loader {
	return NewLoader(Options{Columns: columns(), SkipInvalidRows: skip}, zaptest.NewLogger(t))
}

func TestLoadReadsRecords(t *testing.T) {
	path := writeSheet(t, [][]interface{}{
		header("Image1", "Image2", "Atribut Výkon", "Atribut Napětí", "datový list"),
		{"BX100", "Varná konvice", 4015613000000, "Rychlovarná", 100, 80.5, "https://img/1.jpg", "nic", "2 kW", "", "https://doc/1.pdf"},
		{},
		{"BX200", "Gril", "", "", "1 234,50", "999", "", "", "", "230 V", ""},
	})

	result, err := newLoader(t, false).Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}

	first := result.Records[0]
	if first.Code != "BX100" || first.Name != "Varná konvice" || first.EAN != "4015613000000" {
		t.Fatalf("first record = %+v", first)
	}
	if first.Row != 2 {
		t.Fatalf("first row = %d, want 2", first.Row)
	}
	if !first.PurchaseEUR.Equal(decimal.NewFromInt(100)) || !first.SaleEUR.Equal(decimal.RequireFromString("80.5")) {
		t.Fatalf("prices = %s / %s", first.PurchaseEUR, first.SaleEUR)
	}
	if len(first.Images) != 2 || first.Images[0] != "https://img/1.jpg" || first.Images[1] != "nic" {
		t.Fatalf("images = %q", first.Images)
	}
	if len(first.Attributes) != 2 || first.Attributes[0].Name != "Atribut Výkon" || first.Attributes[0].Value != "2 kW" {
		t.Fatalf("attributes = %+v", first.Attributes)
	}
	if len(first.Documents) != 5 || first.Documents[0].URL != "https://doc/1.pdf" || first.Documents[1].URL != "" {
		t.Fatalf("documents = %+v", first.Documents)
	}

	second := result.Records[1]
	if second.Row != 4 {
		t.Fatalf("second row = %d, want 4", second.Row)
	}
	if !second.PurchaseEUR.Equal(decimal.RequireFromString("1234.5")) {
		t.Fatalf("purchase = %s", second.PurchaseEUR)
	}
	if second.EAN != "" {
		t.Fatalf("ean = %q, want empty", second.EAN)
	}
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	c := columns()
	path := writeSheet(t, [][]interface{}{
		{c.Code, c.Name, c.PurchasePrice},
		{"BX100", "Konvice", 10},
	})

	_, err := newLoader(t, false).Load(path)
	if !feederr.Is(err, feederr.KindSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := newLoader(t, false).Load(filepath.Join(t.TempDir(), "absent.xlsx"))
	if !feederr.Is(err, feederr.KindSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestLoadInvalidPrice(t *testing.T) {
	tests := []struct {
		name  string
		price interface{}
	}{
		{name: "empty", price: ""},
		{name: "text", price: "na dotaz"},
		{name: "negative", price: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSheet(t, [][]interface{}{
				header(),
				{"BX100", "Konvice", "", "", tt.price, 10},
				{"BX200", "Gril", "", "", 20, 10},
			})

			_, err := newLoader(t, false).Load(path)
			if !feederr.Is(err, feederr.KindParse) {
				t.Fatalf("expected parse error, got %v", err)
			}

			result, err := newLoader(t, true).Load(path)
			if err != nil {
				t.Fatalf("Load with skip error: %v", err)
			}
			if result.Skipped != 1 || len(result.Records) != 1 || result.Records[0].Code != "BX200" {
				t.Fatalf("result = %+v", result)
			}
		})
	}
}

func TestLoadSkipsRowsWithoutCodeAndKeepsDuplicates(t *testing.T) {
	path := writeSheet(t, [][]interface{}{
		header(),
		{"", "No code", "", "", 1, 1},
		{"BX100", "First", "", "", 1, 1},
		{"BX100", "Second", "", "", 2, 2},
	})

	result, err := newLoader(t, false).Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(result.Records) != 2 || result.Records[0].Name != "First" || result.Records[1].Name != "Second" {
		t.Fatalf("records = %+v", result.Records)
	}
	if len(result.Duplicates) != 1 || result.Duplicates[0] != "BX100" {
		t.Fatalf("duplicates = %q", result.Duplicates)
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"123.0", "123"},
		{"4015613000000.00", "4015613000000"},
		{"123", "123"},
		{"12.5", "12.5"},
		{"A1.0", "A1.0"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeIdentifier(tt.in); got != tt.want {
			t.Fatalf("normalizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "100", want: "100"},
		{in: "12,5", want: "12.5"},
		{in: "1 234.56", want: "1234.56"},
		{in: "0", want: "0"},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-1", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parsePrice(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parsePrice(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parsePrice(%q) error: %v", tt.in, err)
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("parsePrice(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
