package scraper

import (
	"context"

	"github.com/dkarlsen/yochiwatch/models"
)

// Mock is the Source used by -test runs: a fixed four-variant catalogue
// instead of a live fetch.
type Mock struct{}

// Products returns the mock catalogue.
func (Mock) Products(_ context.Context) ([]models.Product, error) {
	return []models.Product{
		{Name: "Yo Chi Frozen Natural Yoghurt | 500mL", Price: 4.50},
		{Name: "Yo Chi Frozen Wild Berry Yoghurt | 500mL", Price: 3.80},
		{Name: "Yo Chi Frozen Mango Yoghurt | 500mL", Price: 4.20},
		{Name: "Yo Chi Frozen Vanilla Yoghurt | 500mL", Price: 4.00},
	}, nil
}
