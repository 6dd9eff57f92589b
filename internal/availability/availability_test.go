package availability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"

	"github.com/ginjaninja78/bartscher-feed/internal/config"
	"github.com/ginjaninja78/bartscher-feed/internal/feederr"
	"github.com/ginjaninja78/bartscher-feed/internal/fetch"
	"github.com/ginjaninja78/bartscher-feed/internal/types"
)

func settings() config.AvailabilitySettings {
	return config.Default().Availability
}

func TestParseMapsAvailability(t *testing.T) {
	feed := "Artikel Nr. / Item No.\tBezeichnung\tVerfügbarkeit / Availability\n" +
		"BX100\tKettle\tyes\n" +
		" BX200 \tOven\t YES \n" +
		"BX300\tGrill\tno\n" +
		"BX400\tFryer\t\n"

	m, stats, err := Parse([]byte(feed), settings())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	want := map[string]int{
		"BX100": types.StockInStock,
		"BX200": types.StockInStock,
		"BX300": types.StockNone,
		"BX400": types.StockNone,
	}
	for code, level := range want {
		if got := m.Stock(code); got != level {
			t.Fatalf("Stock(%q) = %d, want %d", code, got, level)
		}
	}
	if stats.InStock != 2 || stats.Malformed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if m.Stock("UNKNOWN") != types.StockNone {
		t.Fatalf("absent code must map to StockNone")
	}
}

func TestParseColumnOrderIsNotAssumed(t *testing.T) {
	feed := "Verfügbarkeit / Availability\tArtikel Nr. / Item No.\n" +
		"yes\tBX100\n"

	m, _, err := Parse([]byte(feed), settings())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.Stock("BX100") != types.StockInStock {
		t.Fatalf("BX100 should be in stock, got %v", m)
	}
}

func TestParseSkipsMalformedRows(t *testing.T) {
	feed := "Artikel Nr. / Item No.\tBezeichnung\tVerfügbarkeit / Availability\n" +
		"BX100\n" +
		"\tNo code\tyes\n" +
		"BX200\tOven\tyes\n"

	m, stats, err := Parse([]byte(feed), settings())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(m) != 1 || m.Stock("BX200") != types.StockInStock {
		t.Fatalf("map = %v", m)
	}
	if stats.Malformed != 2 || stats.Rows != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestParseSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		feed string
	}{
		{name: "empty body", feed: ""},
		{name: "missing availability column", feed: "Artikel Nr. / Item No.\tStock\nBX100\t3\n"},
		{name: "missing code column", feed: "Item\tVerfügbarkeit / Availability\nBX100\tyes\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.feed), settings())
			if !feederr.Is(err, feederr.KindSchema) {
				t.Fatalf("err = %v, want schema error", err)
			}
		})
	}
}

func TestParseDecodesConfiguredCharset(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().String("Artikel Nr. / Item No.\tVerfügbarkeit / Availability\nBX100\tyes\n")
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	s := settings()
	s.Encoding = "windows-1252"

	m, _, err := Parse([]byte(raw), s)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if m.Stock("BX100") != types.StockInStock {
		t.Fatalf("map = %v", m)
	}
}

func TestFetcherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Artikel Nr. / Item No.\tVerfügbarkeit / Availability\nBX100\tyes\nBX200\tno\n"))
	}))
	defer srv.Close()

	s := settings()
	s.URL = srv.URL
	logger := zaptest.NewLogger(t)
	f := NewFetcher(s, fetch.NewClient(fetch.Options{Timeout: time.Second}, logger), logger)

	m, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(m) != 2 || m.InStock() != 1 {
		t.Fatalf("map = %v", m)
	}
}

func TestFetcherUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := settings()
	s.URL = srv.URL
	logger := zaptest.NewLogger(t)
	f := NewFetcher(s, fetch.NewClient(fetch.Options{Timeout: time.Second}, logger), logger)

	if _, err := f.Fetch(context.Background()); !feederr.Is(err, feederr.KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}
