package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dkarlsen/yochiwatch/config"
	"github.com/dkarlsen/yochiwatch/history"
	"github.com/dkarlsen/yochiwatch/monitor"
	"github.com/dkarlsen/yochiwatch/notify"
	"github.com/dkarlsen/yochiwatch/report"
	"github.com/dkarlsen/yochiwatch/scraper"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configDefault := "config.json"
	if value, ok := config.EnvString("YOCHIWATCH_CONFIG"); ok {
		configDefault = value
	}
	metricsDefault := ""
	if value, ok := config.EnvString("YOCHIWATCH_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	configPath := flag.String("config", configDefault, "Configuration file path")
	testMode := flag.Bool("test", false, "Run against the mock catalogue instead of live scraping")
	testNotifications := flag.Bool("test-notifications", false, "Send a test message through each enabled channel and exit")
	requestPermissions := flag.Bool("request-permissions", false, "Trigger the macOS notification permission prompt and exit")
	reportPath := flag.String("report", "", "Write a price-history chart to this HTML file and exit")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	// Secrets such as GMAIL_APP_PASSWORD may live in a local .env file.
	_ = godotenv.Load()

	cfg, created, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if created {
		fmt.Printf("Created default config file: %s\n", *configPath)
		fmt.Println("Please edit the configuration file before running the monitor.")
		return
	}

	slog.SetDefault(newLogger(cfg.Logging, *verbose))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *requestPermissions {
		fmt.Println("Requesting notification permissions...")
		if err := notify.RequestPermission(ctx); err != nil {
			slog.Warn("permission request failed", slog.Any("error", err))
		}
		fmt.Println("If a dialog appeared, please allow notifications.")
		return
	}

	store, err := history.Open(cfg.PriceHistoryFile)
	if err != nil {
		slog.Error("opening price history", slog.Any("error", err))
		os.Exit(1)
	}

	if *reportPath != "" {
		if err := report.WriteHistoryChart(store.Records(), *reportPath); err != nil {
			slog.Error("writing history report", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("history report written",
			slog.String("path", *reportPath),
			slog.Int("observations", store.Len()),
		)
		return
	}

	dispatcher := notify.FromConfig(cfg)

	if *testNotifications {
		outcomes := dispatcher.Test(ctx)
		for _, outcome := range outcomes {
			fmt.Printf("  %-10s %s\n", outcome.Channel, outcome.Status)
		}
		if len(outcomes) == 0 {
			fmt.Println("No notification channels enabled.")
		}
		return
	}

	metrics := monitor.NewMetrics()
	var metricsServer *http.Server
	if *metricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    *metricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", *metricsAddr))
	}

	var source scraper.Source
	if *testMode {
		source = scraper.Mock{}
	} else {
		live, err := scraper.New(cfg)
		if err != nil {
			slog.Error("initialising scraper", slog.Any("error", err))
			os.Exit(1)
		}
		source = live
	}

	m := monitor.New(cfg, source, store, dispatcher, metrics)
	result, err := m.Check(ctx)
	if err != nil {
		// A failed cycle is logged and counted; the scheduler just runs the
		// next one. Only startup problems exit non-zero.
		slog.Error("check cycle failed", slog.Any("error", err))
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if result != nil {
		printSummary(result, store.Len())
	}
}

func printSummary(result *monitor.Result, historyLen int) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Check complete")
	fmt.Printf("  Products found:  %d\n", len(result.Products))
	if result.Deal != nil {
		fmt.Printf("  Cheapest:        %s at %s\n", result.Deal.Cheapest.Name, notify.FormatPrice(result.Deal.Cheapest.Price))
	}
	if result.RegularOK {
		fmt.Printf("  Regular price:   %s\n", notify.FormatPrice(result.RegularPrice))
	} else {
		fmt.Printf("  Regular price:   unavailable\n")
	}
	if result.Decision.HasFraction {
		fmt.Printf("  Discount:        %s (threshold met: %v)\n", notify.FormatPercent(result.Decision.Fraction), result.Decision.IsDiscount)
	}
	if len(result.Outcomes) > 0 {
		parts := make([]string, 0, len(result.Outcomes))
		for _, outcome := range result.Outcomes {
			parts = append(parts, fmt.Sprintf("%s=%s", outcome.Channel, outcome.Status))
		}
		fmt.Printf("  Notifications:   %s\n", strings.Join(parts, " "))
	}
	fmt.Printf("  History size:    %d\n", historyLen)
	fmt.Println(separator)
}

func newLogger(cfg config.Logging, verbose bool) *slog.Logger {
	level := &slog.LevelVar{}
	switch strings.ToUpper(cfg.Level) {
	case "DEBUG":
		level.Set(slog.LevelDebug)
	case "WARNING", "WARN":
		level.Set(slog.LevelWarn)
	case "ERROR":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	if verbose {
		level.Set(slog.LevelDebug)
	}

	var w io.Writer = os.Stdout
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file %s, logging to stdout only: %v\n", cfg.File, err)
		} else {
			w = io.MultiWriter(os.Stdout, f)
		}
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
