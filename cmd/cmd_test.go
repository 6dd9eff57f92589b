package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/bartscher-feed/internal/config"
	"github.com/ginjaninja78/bartscher-feed/internal/feederr"
)

const testFixing = "17.10.2026 #201\nzemě|měna|množství|kód|kurz\nEMU|euro|1|EUR|25,000\n"

const testAvailability = "Artikel Nr. / Item No.\tVerfügbarkeit / Availability\nBX100\tyes\nBX200\tno\n"

// run executes the CLI with args and returns the exit code and output.
func run(t *testing.T, args ...string) (int, string) {
	t.Helper()

	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), generateCmd.Flags(), validateCmd.Flags(), versionCmd.Flags()} {
		resetFlags(t, fs)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	code := execute(context.Background(), args)
	return code, buf.String()
}

// resetFlags restores defaults and clears Changed, since the command tree
// is shared across runs.
func resetFlags(t *testing.T, fs *pflag.FlagSet) {
	t.Helper()
	fs.VisitAll(func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("reset --%s: %v", f.Name, err)
		}
		f.Changed = false
	})
}

// writeProducts creates a product spreadsheet with the default columns.
func writeProducts(t *testing.T, dir string, withSalePrice bool) string {
	t.Helper()

	c := config.Default().Columns
	header := []interface{}{c.Code, c.Name, c.GTIN, c.PurchasePrice}
	if withSalePrice {
		header = append(header, c.SalePrice)
	}
	header = append(header, "Image1", "Atribut Výkon")

	rows := [][]interface{}{
		header,
		{"BX100", "Varná konvice", "4006381333931", 100, 120, "https://img/bx100.jpg", "2 kW"},
		{"BX200", "Gril", "", 10, 9, "", ""},
	}

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		if !withSalePrice && i > 0 {
			row = append(row[:4], row[5:]...)
		}
		if err := f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	path := filepath.Join(dir, "products.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

// newFeedServer serves the CNB fixing and the availability list.
func newFeedServer(t *testing.T, availabilityStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/denni_kurz.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFixing))
	})
	mux.HandleFunc("/availability-list", func(w http.ResponseWriter, r *http.Request) {
		if availabilityStatus != http.StatusOK {
			w.WriteHeader(availabilityStatus)
			return
		}
		w.Write([]byte(testAvailability))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig writes a configuration pointing at srv and returns its path.
func writeConfig(t *testing.T, dir, srvURL, input string) string {
	t.Helper()

	content := fmt.Sprintf(`input_path: %q
output_path: %q
summary_dir: %q
log_level: warn
http:
  timeout: 5s
  requests_per_second: 100
exchange_rate:
  url: %q
availability:
  url: %q
`, input, filepath.Join(dir, "output", "bartscher.xml"), filepath.Join(dir, "summaries"),
		srvURL+"/denni_kurz.txt", srvURL+"/availability-list")

	path := filepath.Join(dir, "feed.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestVersion(t *testing.T) {
	code, out := run(t, "version")
	if code != feederr.ExitOK || !strings.Contains(out, "feedgen "+Version) || !strings.Contains(out, "go:") {
		t.Fatalf("code = %d, out = %s", code, out)
	}

	code, out = run(t, "version", "--short")
	if code != feederr.ExitOK || out != Version+"\n" {
		t.Fatalf("short: code = %d, out = %q", code, out)
	}
}

func TestUsageErrorsExitWithConfigCode(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"generate", "--bogus"}},
		{name: "unexpected argument", args: []string{"generate", "extra"}},
		{name: "missing explicit config", args: []string{"generate", "--config", filepath.Join(t.TempDir(), "absent.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := run(t, tt.args...)
			if code != feederr.ExitConfig {
				t.Fatalf("code = %d, want %d; out = %s", code, feederr.ExitConfig, out)
			}
		})
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	dir := t.TempDir()
	srv := newFeedServer(t, http.StatusOK)
	cfg := writeConfig(t, dir, srv.URL, writeProducts(t, dir, true))

	code, out := run(t, "generate", "--config", cfg)
	if code != feederr.ExitOK {
		t.Fatalf("code = %d, out = %s", code, out)
	}
	if !strings.Contains(out, "Products:        2") || !strings.Contains(out, "In stock:        1") {
		t.Fatalf("out = %s", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "output", "bartscher.xml"))
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	feed := string(data)
	for _, want := range []string{
		"<nakupni_cena>2500.0</nakupni_cena>",
		"<prodejni_cena>3000.0</prodejni_cena>",
		"<nazev_vyrobku>Bartscher | Varná konvice</nazev_vyrobku>",
		"<obrazek>https://img/bx100.jpg</obrazek>",
		"<sklad>Skladem 2 ks</sklad>",
		"<sklad>Do 5 dnů</sklad>",
	} {
		if !strings.Contains(feed, want) {
			t.Fatalf("feed missing %s:\n%s", want, feed)
		}
	}

	summaries, _ := filepath.Glob(filepath.Join(dir, "summaries", "feed_summary_*.txt"))
	if len(summaries) != 1 {
		t.Fatalf("summaries = %v", summaries)
	}
}

func TestGenerateDryRunAndOutputFlag(t *testing.T) {
	dir := t.TempDir()
	srv := newFeedServer(t, http.StatusOK)
	cfg := writeConfig(t, dir, srv.URL, writeProducts(t, dir, true))
	target := filepath.Join(dir, "elsewhere.xml")

	code, out := run(t, "generate", "--config", cfg, "--output", target, "--dry-run")
	if code != feederr.ExitOK || !strings.Contains(out, "dry run") {
		t.Fatalf("code = %d, out = %s", code, out)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote %s", target)
	}
}

func TestOutputFlagDoesNotLeakIntoNextRun(t *testing.T) {
	dir := t.TempDir()
	srv := newFeedServer(t, http.StatusOK)
	cfg := writeConfig(t, dir, srv.URL, writeProducts(t, dir, true))

	if code, out := run(t, "generate", "--config", cfg, "--output", filepath.Join(dir, "first.xml")); code != feederr.ExitOK {
		t.Fatalf("first run: code = %d, out = %s", code, out)
	}
	if code, out := run(t, "generate", "--config", cfg); code != feederr.ExitOK {
		t.Fatalf("second run: code = %d, out = %s", code, out)
	}
	if _, err := os.Stat(filepath.Join(dir, "output", "bartscher.xml")); err != nil {
		t.Fatalf("second run ignored output_path: %v", err)
	}
}

func TestGenerateAvailabilityUnreachable(t *testing.T) {
	dir := t.TempDir()
	srv := newFeedServer(t, http.StatusInternalServerError)
	cfg := writeConfig(t, dir, srv.URL, writeProducts(t, dir, true))

	code, out := run(t, "generate", "--config", cfg)
	if code != feederr.ExitNetwork {
		t.Fatalf("code = %d, want %d; out = %s", code, feederr.ExitNetwork, out)
	}
	if _, err := os.Stat(filepath.Join(dir, "output", "bartscher.xml")); !os.IsNotExist(err) {
		t.Fatalf("feed written after failure")
	}
}

func TestGenerateMissingColumnExitsWithParseCode(t *testing.T) {
	dir := t.TempDir()
	srv := newFeedServer(t, http.StatusOK)
	cfg := writeConfig(t, dir, srv.URL, writeProducts(t, dir, false))

	code, out := run(t, "generate", "--config", cfg)
	if code != feederr.ExitParse {
		t.Fatalf("code = %d, want %d; out = %s", code, feederr.ExitParse, out)
	}
}

func TestValidateOffline(t *testing.T) {
	dir := t.TempDir()
	// The URLs are never contacted by validate.
	cfg := writeConfig(t, dir, "http://127.0.0.1:1", writeProducts(t, dir, true))

	code, out := run(t, "validate", "--config", cfg)
	if code != feederr.ExitOK {
		t.Fatalf("code = %d, out = %s", code, out)
	}
	for _, want := range []string{"Records:         2", "images:", "sale_price:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("out missing %q:\n%s", want, out)
		}
	}
}

func TestValidateInputFlag(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http://127.0.0.1:1", filepath.Join(dir, "absent.xlsx"))
	good := writeProducts(t, dir, true)

	if code, out := run(t, "validate", "--config", cfg); code != feederr.ExitParse {
		t.Fatalf("missing spreadsheet: code = %d, out = %s", code, out)
	}
	if code, out := run(t, "validate", "--config", cfg, "--input", good); code != feederr.ExitOK {
		t.Fatalf("with --input: code = %d, out = %s", code, out)
	}
}

func TestGenerateWriteFailureIsUnclassified(t *testing.T) {
	dir := t.TempDir()
	srv := newFeedServer(t, http.StatusOK)
	cfg := writeConfig(t, dir, srv.URL, writeProducts(t, dir, true))

	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	code, out := run(t, "generate", "--config", cfg, "--output", filepath.Join(blocker, "feed.xml"))
	if code != feederr.ExitNetwork {
		t.Fatalf("code = %d, want %d; out = %s", code, feederr.ExitNetwork, out)
	}
}
