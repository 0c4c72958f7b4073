// Package deal implements deal selection and the discount decision:
// which scraped variant is cheapest, what the regular price is, and
// whether the current price qualifies as a notifiable discount.
package deal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dkarlsen/yochiwatch/models"
)

const (
	// brandPrefix is stripped from product names when rendering flavors.
	brandPrefix = "Yo Chi Frozen"

	// regularPriceWindow bounds how far back history counts toward the
	// regular-price estimate.
	regularPriceWindow = 30 * 24 * time.Hour

	maxAlternatives = 3
)

// Select picks the cheapest product and builds the alternatives summary.
// Returns nil for an empty input: no products means no deal, not an error.
func Select(products []models.Product) *models.DealInfo {
	if len(products) == 0 {
		return nil
	}

	sorted := make([]models.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})

	end := len(sorted)
	if end > 1+maxAlternatives {
		end = 1 + maxAlternatives
	}
	alternatives := make([]string, 0, end-1)
	for _, p := range sorted[1:end] {
		alternatives = append(alternatives, fmt.Sprintf("%s $%.2f", Flavor(p.Name), p.Price))
	}

	return &models.DealInfo{
		Cheapest:     sorted[0],
		AllProducts:  products,
		Alternatives: alternatives,
	}
}

// Flavor reduces a full product name like
// "Yo Chi Frozen Wild Berry Yoghurt | 500mL" to "Wild Berry Yoghurt".
func Flavor(name string) string {
	short, _, _ := strings.Cut(name, "|")
	short = strings.ReplaceAll(short, brandPrefix, "")
	return strings.TrimSpace(short)
}

// RegularPrice estimates the non-discounted baseline: the maximum price among
// history entries strictly newer than 30 days before now, or the configured
// fallback when the window is empty. ok is false when neither is available.
func RegularPrice(records []models.PriceRecord, now time.Time, fallback *float64) (price float64, ok bool) {
	cutoff := now.Add(-regularPriceWindow)
	found := false
	for _, rec := range records {
		if !rec.Timestamp.After(cutoff) {
			continue
		}
		if !found || rec.Price > price {
			price = rec.Price
			found = true
		}
	}
	if found {
		return price, true
	}
	if fallback != nil {
		return *fallback, true
	}
	return 0, false
}

// Decision is the outcome of comparing the current price to the baseline.
// Fraction is meaningless when HasFraction is false.
type Decision struct {
	IsDiscount  bool
	Fraction    float64
	HasFraction bool
}

// Decide compares the current price against the regular price and threshold.
// An unavailable or non-positive regular price yields "not a discount" with no
// fraction computed. The fraction keeps its sign: a price above the baseline
// produces a negative fraction and fails the threshold on its own.
func Decide(current, regular float64, regularOK bool, threshold float64) Decision {
	if !regularOK || regular <= 0 {
		return Decision{}
	}
	fraction := (regular - current) / regular
	return Decision{
		IsDiscount:  fraction >= threshold,
		Fraction:    fraction,
		HasFraction: true,
	}
}
