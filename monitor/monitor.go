// Package monitor orchestrates one check cycle: scrape, select the deal,
// decide on a discount, record the observation, and maybe notify.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dkarlsen/yochiwatch/config"
	"github.com/dkarlsen/yochiwatch/deal"
	"github.com/dkarlsen/yochiwatch/history"
	"github.com/dkarlsen/yochiwatch/models"
	"github.com/dkarlsen/yochiwatch/notify"
	"github.com/dkarlsen/yochiwatch/scraper"
)

// Check result labels for metrics.
const (
	resultDiscount    = "discount"
	resultNoDiscount  = "no_discount"
	resultNoProducts  = "no_products"
	resultScrapeError = "scrape_error"
)

// Monitor wires the cycle's collaborators together.
type Monitor struct {
	cfg        *config.Config
	source     scraper.Source
	store      *history.Store
	dispatcher *notify.Dispatcher
	metrics    *Metrics

	now func() time.Time
}

// Result summarizes one completed check cycle.
type Result struct {
	Products     []models.Product
	Deal         *models.DealInfo
	RegularPrice float64
	RegularOK    bool
	Decision     deal.Decision
	Recorded     *models.PriceRecord
	Outcomes     []notify.Outcome
}

// New builds a monitor. metrics may be nil.
func New(cfg *config.Config, source scraper.Source, store *history.Store, dispatcher *notify.Dispatcher, metrics *Metrics) *Monitor {
	return &Monitor{
		cfg:        cfg,
		source:     source,
		store:      store,
		dispatcher: dispatcher,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Check runs one full cycle. A scrape failure is returned as an error after
// being counted; an empty scrape ends the cycle early with a nil error. Every
// cycle that yields a price appends an observation, discount or not.
func (m *Monitor) Check(ctx context.Context) (*Result, error) {
	slog.Info("starting price check")

	start := m.now()
	products, err := m.source.Products(ctx)
	m.metrics.ObserveScrape(m.now().Sub(start))
	if err != nil {
		m.metrics.IncCheck(resultScrapeError)
		slog.Error("scrape failed",
			slog.String("category", scraper.ErrorLabel(err)),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("scrape: %w", err)
	}
	m.metrics.SetProductsFound(len(products))

	result := &Result{Products: products}
	if len(products) == 0 {
		m.metrics.IncCheck(resultNoProducts)
		slog.Warn("no yochi products found")
		return result, nil
	}

	result.Deal = deal.Select(products)
	cheapest := result.Deal.Cheapest

	// Baseline comes from the log state before this cycle's observation.
	result.RegularPrice, result.RegularOK = deal.RegularPrice(m.store.Records(), m.now(), m.cfg.RegularPrice)
	if !result.RegularOK {
		slog.Warn("no regular price available for comparison")
	}

	result.Decision = deal.Decide(cheapest.Price, result.RegularPrice, result.RegularOK, m.cfg.DiscountThreshold)
	m.metrics.SetPrices(cheapest.Price, result.RegularPrice)

	rec := models.PriceRecord{
		Timestamp:   m.now(),
		Price:       cheapest.Price,
		ProductName: cheapest.Name,
		IsDiscount:  result.Decision.IsDiscount,
	}
	if err := m.store.Append(rec); err != nil {
		return result, fmt.Errorf("record price: %w", err)
	}
	result.Recorded = &rec
	m.metrics.SetHistorySize(m.store.Len())

	if !result.Decision.IsDiscount {
		m.metrics.IncCheck(resultNoDiscount)
		slog.Info("no significant discount found",
			slog.Float64("current_price", cheapest.Price),
		)
		return result, nil
	}

	percent := notify.FormatPercent(result.Decision.Fraction)
	slog.Info("discount found",
		slog.String("discount", percent),
		slog.Float64("current_price", cheapest.Price),
		slog.Float64("regular_price", result.RegularPrice),
	)

	alert := notify.Alert{
		Flavor:       deal.Flavor(cheapest.Name),
		Price:        cheapest.Price,
		Percent:      percent,
		Alternatives: result.Deal.Alternatives,
		ShopURL:      m.cfg.URL,
	}
	result.Outcomes = m.dispatcher.Dispatch(ctx, alert)
	for _, outcome := range result.Outcomes {
		m.metrics.IncNotification(outcome.Channel, outcome.Status)
	}

	m.metrics.IncCheck(resultDiscount)
	return result, nil
}
