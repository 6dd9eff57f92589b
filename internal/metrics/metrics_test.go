package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.SetRate(24.335)
	r.SetCounts(120, 3, 45)
	r.ObserveStep("load", 1500*time.Millisecond)
	r.MarkSuccess(time.Unix(1760000000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "feed.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"feed_products_total 120",
		"feed_rows_skipped_total 3",
		"feed_products_in_stock 45",
		"feed_exchange_rate 24.335",
		`feed_step_duration_seconds{step="load"} 1.5`,
		"feed_last_success_timestamp_seconds 1.76e+09",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("textfile missing %q:\n%s", want, out)
		}
	}
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.SetCounts(1, 0, 0)

	path := filepath.Join(t.TempDir(), "b.prom")
	if err := b.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "feed_products_total 0") {
		t.Fatalf("second recorder saw first recorder's value:\n%s", data)
	}
}
