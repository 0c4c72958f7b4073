// Package scraper fetches the retailer search page and extracts Yochi
// product name/price pairs.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dkarlsen/yochiwatch/config"
	"github.com/dkarlsen/yochiwatch/models"
	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Source produces the products for one check cycle. An empty slice with a nil
// error means the page yielded no recognizable products, which callers treat
// as "no data", not as a failure.
type Source interface {
	Products(ctx context.Context) ([]models.Product, error)
}

const (
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	requestTimeout = 30 * time.Second
	dedupeSize     = 256
)

// The retailer renders search results with several different markup
// generations, so every lookup walks a selector cascade and takes the first
// hit.
var (
	containerSelectors = []string{
		`[data-testid="product-tile"]`,
		".product-tile",
		".product-item",
		".search-results .product",
		"article",
	}
	nameSelectors = []string{
		`[data-testid="product-name"]`,
		".product__title",
		".product-name",
		"h3 a",
		"h3",
		"h2 a",
		"h2",
		".product-title",
		`a[href*="product"]`,
	}
	priceSelectors = []string{
		`[data-testid="price-per-item"]`,
		".price__value",
		".price-per-item",
		".price",
		".coles-price",
		`[class*="price"]`,
	}
)

var priceRe = regexp.MustCompile(`[0-9.]+`)

// Scraper is the live Source: one HTTP GET per cycle, no crawling, no retries.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	seen      *lru.Cache[string, struct{}]

	handlersOnce sync.Once

	products []models.Product
	fetchErr error
}

// New builds a scraper restricted to the configured URL's host.
func New(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(userAgent),
	)
	collector.SetRequestTimeout(requestTimeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   requestTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	seen, err := lru.New[string, struct{}](dedupeSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}

	return &Scraper{
		cfg:       cfg,
		collector: collector,
		seen:      seen,
	}, nil
}

// Products fetches the search page once and returns the Yochi products found.
func (s *Scraper) Products(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.configureHandlers()
	s.products = nil
	s.fetchErr = nil
	s.seen.Purge()

	if err := s.collector.Visit(s.cfg.URL); err != nil {
		// The OnError handler saw the response and classified with the
		// status code; the Visit error alone has only the status text.
		if s.fetchErr != nil {
			return nil, s.fetchErr
		}
		return nil, classifyError(err, 0)
	}
	s.collector.Wait()

	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.products, nil
}

func (s *Scraper) configureHandlers() {
	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
			r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
			r.Headers.Set("DNT", "1")
			r.Headers.Set("Upgrade-Insecure-Requests", "1")
			slog.Debug("fetching search page", slog.String("url", r.URL.String()))
		})

		s.collector.OnResponse(func(r *colly.Response) {
			doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
			if err != nil {
				s.fetchErr = fmt.Errorf("parse response body: %w", err)
				return
			}
			s.products = s.parse(doc)
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			statusCode := 0
			if r != nil {
				statusCode = r.StatusCode
			}
			classified := classifyError(err, statusCode)
			slog.Error("search page request failed",
				slog.String("url", s.cfg.URL),
				slog.String("category", ErrorLabel(classified)),
				slog.Any("error", err),
			)
			s.fetchErr = classified
		})
	})
}

func (s *Scraper) parse(doc *goquery.Document) []models.Product {
	tiles := findContainers(doc)
	if tiles == nil {
		slog.Warn("no product containers found")
		return nil
	}

	var products []models.Product
	tiles.Each(func(_ int, tile *goquery.Selection) {
		name := extractName(tile)
		if name == "" {
			return
		}
		price, ok := extractPrice(tile)
		if !ok {
			slog.Debug("skipping product with unparsable price", slog.String("name", name))
			return
		}

		// Sponsored placements repeat the organic tile verbatim.
		key := fmt.Sprintf("%s|%.2f", name, price)
		if present, _ := s.seen.ContainsOrAdd(key, struct{}{}); present {
			return
		}

		products = append(products, models.Product{Name: name, Price: price})
		slog.Info("found yochi product",
			slog.String("name", name),
			slog.Float64("price", price),
		)
	})

	if len(products) == 0 {
		slog.Warn("no yochi products found with valid prices")
	}
	return products
}

func findContainers(doc *goquery.Document) *goquery.Selection {
	for _, selector := range containerSelectors {
		containers := doc.Find(selector)
		if containers.Length() > 0 {
			slog.Info("found product containers",
				slog.Int("count", containers.Length()),
				slog.String("selector", selector),
			)
			return containers
		}
	}
	return nil
}

func extractName(tile *goquery.Selection) string {
	for _, selector := range nameSelectors {
		element := tile.Find(selector).First()
		if element.Length() == 0 {
			continue
		}
		name := strings.TrimSpace(element.Text())
		if isYochi(name) {
			return name
		}
	}
	return ""
}

func isYochi(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "yochi") || strings.Contains(lower, "yo chi")
}

func extractPrice(tile *goquery.Selection) (float64, bool) {
	for _, selector := range priceSelectors {
		element := tile.Find(selector).First()
		if element.Length() == 0 {
			continue
		}
		text := strings.NewReplacer("$", "", ",", "").Replace(element.Text())
		match := priceRe.FindString(text)
		if match == "" {
			continue
		}
		price, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return 0, false
		}
		return price, true
	}
	return 0, false
}

func classifyError(err error, statusCode int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode >= http.StatusBadRequest {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
		return ErrHTTPStatus{Status: statusCode, Err: wrapped}
	}

	return err
}
