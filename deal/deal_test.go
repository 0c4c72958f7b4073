package deal

import (
	"math"
	"testing"
	"time"

	"github.com/dkarlsen/yochiwatch/models"
)

func floatPtr(v float64) *float64 {
	return &v
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSelectEmptyInput(t *testing.T) {
	if got := Select(nil); got != nil {
		t.Fatalf("Select(nil) = %+v, want nil", got)
	}
	if got := Select([]models.Product{}); got != nil {
		t.Fatalf("Select(empty) = %+v, want nil", got)
	}
}

func TestSelectPicksCheapest(t *testing.T) {
	products := []models.Product{
		{Name: "Yo Chi Frozen Natural Yoghurt | 500mL", Price: 4.50},
		{Name: "Yo Chi Frozen Wild Berry Yoghurt | 500mL", Price: 3.80},
		{Name: "Yo Chi Frozen Mango Yoghurt | 500mL", Price: 4.20},
		{Name: "Yo Chi Frozen Vanilla Yoghurt | 500mL", Price: 4.00},
	}

	info := Select(products)
	if info == nil {
		t.Fatalf("Select returned nil for non-empty input")
	}
	if info.Cheapest.Price != 3.80 {
		t.Fatalf("cheapest price = %v, want 3.80", info.Cheapest.Price)
	}
	for _, p := range products {
		if p.Price < info.Cheapest.Price {
			t.Fatalf("product %q at %v is cheaper than chosen %v", p.Name, p.Price, info.Cheapest.Price)
		}
	}

	want := []string{
		"Vanilla Yoghurt $4.00",
		"Mango Yoghurt $4.20",
		"Natural Yoghurt $4.50",
	}
	if len(info.Alternatives) != len(want) {
		t.Fatalf("alternatives = %v, want %v", info.Alternatives, want)
	}
	for i := range want {
		if info.Alternatives[i] != want[i] {
			t.Fatalf("alternatives[%d] = %q, want %q", i, info.Alternatives[i], want[i])
		}
	}

	// Input order must survive selection.
	if info.AllProducts[0].Price != 4.50 {
		t.Fatalf("AllProducts reordered: first price = %v, want 4.50", info.AllProducts[0].Price)
	}
}

func TestSelectAlternativesLength(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{count: 1, want: 0},
		{count: 2, want: 1},
		{count: 3, want: 2},
		{count: 4, want: 3},
		{count: 7, want: 3},
	}

	for _, tt := range tests {
		products := make([]models.Product, tt.count)
		for i := range products {
			products[i] = models.Product{Name: "Yo Chi Frozen Natural Yoghurt | 500mL", Price: float64(i + 1)}
		}
		info := Select(products)
		if got := len(info.Alternatives); got != tt.want {
			t.Fatalf("count=%d: alternatives length = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestSelectStableOnTies(t *testing.T) {
	products := []models.Product{
		{Name: "Yo Chi Frozen Mango Yoghurt | 500mL", Price: 4.00},
		{Name: "Yo Chi Frozen Vanilla Yoghurt | 500mL", Price: 4.00},
	}

	first := Select(products)
	for i := 0; i < 10; i++ {
		again := Select(products)
		if again.Cheapest != first.Cheapest {
			t.Fatalf("tie-break not deterministic: %+v vs %+v", again.Cheapest, first.Cheapest)
		}
	}
	if first.Cheapest.Name != "Yo Chi Frozen Mango Yoghurt | 500mL" {
		t.Fatalf("tie broken against input order: got %q", first.Cheapest.Name)
	}
}

func TestFlavor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Yo Chi Frozen Wild Berry Yoghurt | 500mL", want: "Wild Berry Yoghurt"},
		{name: "Yo Chi Frozen Natural Yoghurt", want: "Natural Yoghurt"},
		{name: "Plain Yoghurt | 1L", want: "Plain Yoghurt"},
	}

	for _, tt := range tests {
		if got := Flavor(tt.name); got != tt.want {
			t.Fatalf("Flavor(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRegularPriceWindow(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	records := []models.PriceRecord{
		{Timestamp: now.AddDate(0, 0, -31), Price: 5.00},
		{Timestamp: now.AddDate(0, 0, -10), Price: 6.00},
		{Timestamp: now.AddDate(0, 0, -5), Price: 7.00},
	}

	price, ok := RegularPrice(records, now, nil)
	if !ok {
		t.Fatalf("expected a regular price from recent history")
	}
	if price != 7.00 {
		t.Fatalf("regular price = %v, want 7.00 (31-day-old entry must be excluded)", price)
	}
}

func TestRegularPriceFallback(t *testing.T) {
	now := time.Now()

	price, ok := RegularPrice(nil, now, floatPtr(6.00))
	if !ok || price != 6.00 {
		t.Fatalf("empty log with fallback: got (%v, %v), want (6.00, true)", price, ok)
	}

	// Stale entries fall through to the fallback too.
	stale := []models.PriceRecord{{Timestamp: now.AddDate(0, 0, -40), Price: 9.00}}
	price, ok = RegularPrice(stale, now, floatPtr(6.00))
	if !ok || price != 6.00 {
		t.Fatalf("stale log with fallback: got (%v, %v), want (6.00, true)", price, ok)
	}
}

func TestRegularPriceUnavailable(t *testing.T) {
	if price, ok := RegularPrice(nil, time.Now(), nil); ok {
		t.Fatalf("empty log without fallback: got (%v, true), want unavailable", price)
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name         string
		current      float64
		regular      float64
		regularOK    bool
		threshold    float64
		wantDiscount bool
		wantFraction float64
		wantHas      bool
	}{
		{name: "clear discount", current: 4.00, regular: 6.00, regularOK: true, threshold: 0.30, wantDiscount: true, wantFraction: 1.0 / 3.0, wantHas: true},
		{name: "below threshold", current: 5.00, regular: 6.00, regularOK: true, threshold: 0.30, wantDiscount: false, wantFraction: 1.0 / 6.0, wantHas: true},
		{name: "exactly at threshold", current: 4.50, regular: 6.00, regularOK: true, threshold: 0.25, wantDiscount: true, wantFraction: 0.25, wantHas: true},
		{name: "price above regular keeps sign", current: 7.50, regular: 6.00, regularOK: true, threshold: 0.30, wantDiscount: false, wantFraction: -0.25, wantHas: true},
		{name: "regular unavailable", current: 4.00, regularOK: false, threshold: 0.30},
		{name: "zero regular price", current: 4.00, regular: 0, regularOK: true, threshold: 0.30},
		{name: "negative regular price", current: 4.00, regular: -1, regularOK: true, threshold: 0.30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.current, tt.regular, tt.regularOK, tt.threshold)
			if d.IsDiscount != tt.wantDiscount {
				t.Fatalf("IsDiscount = %v, want %v", d.IsDiscount, tt.wantDiscount)
			}
			if d.HasFraction != tt.wantHas {
				t.Fatalf("HasFraction = %v, want %v", d.HasFraction, tt.wantHas)
			}
			if tt.wantHas && !almostEqual(d.Fraction, tt.wantFraction) {
				t.Fatalf("Fraction = %v, want %v", d.Fraction, tt.wantFraction)
			}
		})
	}
}
