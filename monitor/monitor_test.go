package monitor

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkarlsen/yochiwatch/config"
	"github.com/dkarlsen/yochiwatch/history"
	"github.com/dkarlsen/yochiwatch/models"
	"github.com/dkarlsen/yochiwatch/notify"
	"github.com/dkarlsen/yochiwatch/scraper"
)

type fakeSource struct {
	products []models.Product
	err      error
}

func (f *fakeSource) Products(_ context.Context) ([]models.Product, error) {
	return f.products, f.err
}

type recordingSender struct {
	name   string
	err    error
	bodies []string
}

func (r *recordingSender) Name() string {
	return r.name
}

func (r *recordingSender) Send(_ context.Context, _, body string) error {
	r.bodies = append(r.bodies, body)
	return r.err
}

func floatPtr(v float64) *float64 {
	return &v
}

func testStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(filepath.Join(t.TempDir(), "price_history.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func testMonitor(t *testing.T, source scraper.Source, store *history.Store, sender notify.Sender) *Monitor {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RegularPrice = floatPtr(6.00)
	cfg.DiscountThreshold = 0.30

	d := &notify.Dispatcher{}
	if sender != nil {
		d.Register(sender, notify.DesktopMessage)
	}
	return New(cfg, source, store, d, NewMetrics())
}

func TestCheckEndToEnd(t *testing.T) {
	store := testStore(t)
	sender := &recordingSender{name: "desktop"}
	m := testMonitor(t, scraper.Mock{}, store, sender)

	result, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	if result.Deal == nil || result.Deal.Cheapest.Price != 3.80 {
		t.Fatalf("deal = %+v, want cheapest at 3.80", result.Deal)
	}
	if !result.RegularOK || result.RegularPrice != 6.00 {
		t.Fatalf("regular price = (%v, %v), want fallback 6.00", result.RegularPrice, result.RegularOK)
	}
	if !result.Decision.IsDiscount {
		t.Fatalf("expected a discount decision: %+v", result.Decision)
	}
	if math.Abs(result.Decision.Fraction-(6.00-3.80)/6.00) > 1e-9 {
		t.Fatalf("fraction = %v, want ≈0.3667", result.Decision.Fraction)
	}
	if len(result.Deal.Alternatives) != 3 {
		t.Fatalf("alternatives = %v, want 3", result.Deal.Alternatives)
	}

	if result.Recorded == nil || !result.Recorded.IsDiscount {
		t.Fatalf("recorded = %+v, want a discount observation", result.Recorded)
	}
	if store.Len() != 1 {
		t.Fatalf("history size = %d, want 1", store.Len())
	}

	if len(sender.bodies) != 1 {
		t.Fatalf("notifications sent = %d, want 1", len(sender.bodies))
	}
	want := "Wild Berry Yoghurt\nNow $3.8 (36.7% off!)"
	if sender.bodies[0] != want {
		t.Fatalf("notification body = %q, want %q", sender.bodies[0], want)
	}
	if len(result.Outcomes) != 1 || result.Outcomes[0].Status != notify.StatusSent {
		t.Fatalf("outcomes = %+v, want one sent", result.Outcomes)
	}
}

func TestCheckBaselineExcludesOwnObservation(t *testing.T) {
	store := testStore(t)
	if err := store.Append(models.PriceRecord{
		Timestamp:   time.Now().AddDate(0, 0, -5),
		Price:       4.00,
		ProductName: "Yo Chi Frozen Wild Berry Yoghurt | 500mL",
	}); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	sender := &recordingSender{name: "desktop"}
	m := testMonitor(t, scraper.Mock{}, store, sender)

	result, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	// Regular price comes from history (4.00), not the 6.00 fallback and not
	// this cycle's 3.80 observation. A 5% dip is below the 30% threshold.
	if result.RegularPrice != 4.00 {
		t.Fatalf("regular price = %v, want 4.00 from history", result.RegularPrice)
	}
	if result.Decision.IsDiscount {
		t.Fatalf("5%% off must not trigger the 30%% threshold")
	}
	if len(sender.bodies) != 0 {
		t.Fatalf("no notification expected without a discount, got %v", sender.bodies)
	}
	if store.Len() != 2 {
		t.Fatalf("observation must be recorded even without a discount, history size = %d", store.Len())
	}
}

func TestCheckNoProducts(t *testing.T) {
	store := testStore(t)
	sender := &recordingSender{name: "desktop"}
	m := testMonitor(t, &fakeSource{}, store, sender)

	result, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("empty scrape must not be an error: %v", err)
	}
	if result.Deal != nil || result.Recorded != nil {
		t.Fatalf("empty scrape must abort before selection: %+v", result)
	}
	if store.Len() != 0 {
		t.Fatalf("no price may be recorded on an empty scrape")
	}
	if len(sender.bodies) != 0 {
		t.Fatalf("no notification on an empty scrape")
	}
}

func TestCheckScrapeError(t *testing.T) {
	store := testStore(t)
	m := testMonitor(t, &fakeSource{err: errors.New("connection refused")}, store, nil)

	if _, err := m.Check(context.Background()); err == nil {
		t.Fatalf("expected the scrape error to propagate")
	}
	if store.Len() != 0 {
		t.Fatalf("no price may be recorded on a failed scrape")
	}
}

func TestCheckRegularPriceUnavailable(t *testing.T) {
	store := testStore(t)
	sender := &recordingSender{name: "desktop"}

	cfg := config.DefaultConfig()
	cfg.RegularPrice = nil
	cfg.DiscountThreshold = 0.30
	d := &notify.Dispatcher{}
	d.Register(sender, notify.DesktopMessage)
	m := New(cfg, scraper.Mock{}, store, d, NewMetrics())

	result, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.RegularOK {
		t.Fatalf("no history and no fallback must yield an unavailable baseline")
	}
	if result.Decision.IsDiscount || result.Decision.HasFraction {
		t.Fatalf("decision = %+v, want no discount and no fraction", result.Decision)
	}
	if result.Recorded == nil || result.Recorded.IsDiscount {
		t.Fatalf("observation must still be recorded, as a non-discount: %+v", result.Recorded)
	}
	if len(sender.bodies) != 0 {
		t.Fatalf("no notification without a baseline")
	}
}

func TestCheckNotificationFailureDoesNotFailCycle(t *testing.T) {
	store := testStore(t)
	sender := &recordingSender{name: "desktop", err: errors.New("osascript missing")}
	m := testMonitor(t, scraper.Mock{}, store, sender)

	result, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("channel failure must not fail the cycle: %v", err)
	}
	if len(result.Outcomes) != 1 || result.Outcomes[0].Status != notify.StatusFailed {
		t.Fatalf("outcomes = %+v, want one failed", result.Outcomes)
	}
	if store.Len() != 1 {
		t.Fatalf("observation must be recorded despite the channel failure")
	}
}
