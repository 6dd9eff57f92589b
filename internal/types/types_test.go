package types

import "testing"

func TestAvailabilityMapStock(t *testing.T) {
	m := AvailabilityMap{"BX100": StockInStock, "BX200": StockNone}

	if got := m.Stock("BX100"); got != StockInStock {
		t.Fatalf("Stock(BX100) = %d, want %d", got, StockInStock)
	}
	if got := m.Stock("BX200"); got != StockNone {
		t.Fatalf("Stock(BX200) = %d, want %d", got, StockNone)
	}
	if got := m.Stock("missing"); got != StockNone {
		t.Fatalf("Stock(missing) = %d, want %d", got, StockNone)
	}
	if got := m.InStock(); got != 1 {
		t.Fatalf("InStock() = %d, want 1", got)
	}

	var empty AvailabilityMap
	if got := empty.Stock("BX100"); got != StockNone {
		t.Fatalf("nil map Stock = %d, want %d", got, StockNone)
	}
}
