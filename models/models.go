// Package models defines data structures shared across the monitor.
package models

import "time"

// Product is a scraped name/price pair. Ephemeral, produced fresh each cycle.
type Product struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// PriceRecord is one observation in the price history. Immutable once appended.
type PriceRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Price       float64   `json:"price"`
	ProductName string    `json:"product_name"`
	IsDiscount  bool      `json:"is_discount"`
}

// DealInfo bundles the cheapest product of one check cycle with up to three
// runner-up alternatives already rendered for notification text.
type DealInfo struct {
	Cheapest     Product
	AllProducts  []Product
	Alternatives []string
}
