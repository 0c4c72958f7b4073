// Package report renders the price history as a standalone HTML chart.
package report

import (
	"fmt"
	"os"

	"github.com/dkarlsen/yochiwatch/models"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// WriteHistoryChart writes a line chart of the price log to path. Discount
// observations are drawn as a second series so dips stand out; entries that
// were not discounts hold a gap in that series.
func WriteHistoryChart(records []models.PriceRecord, path string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Yochi Price History",
			Subtitle: fmt.Sprintf("%d observations", len(records)),
		}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	timestamps := make([]string, 0, len(records))
	prices := make([]opts.LineData, 0, len(records))
	discounts := make([]opts.LineData, 0, len(records))
	for _, rec := range records {
		timestamps = append(timestamps, rec.Timestamp.Format("2006-01-02 15:04"))
		prices = append(prices, opts.LineData{Value: rec.Price})
		if rec.IsDiscount {
			discounts = append(discounts, opts.LineData{Value: rec.Price, Symbol: "diamond", SymbolSize: 12})
		} else {
			discounts = append(discounts, opts.LineData{Value: nil})
		}
	}

	line.SetXAxis(timestamps).
		AddSeries("Price", prices).
		AddSeries("Discount", discounts)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
