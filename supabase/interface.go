package supabase

import (
	"context"
	"time"

	"github.com/creastat/foodagent/inventory"
)

// Store provides access to the hosted food inventory.
type Store interface {
	inventory.Committer
	inventory.Lister

	// GetItem retrieves a stored item by ID
	GetItem(ctx context.Context, id string) (*inventory.Record, error)

	// Close closes the Supabase client and releases resources
	Close() error
}

// FoodStock is a row of the food_stock table.
type FoodStock struct {
	ID              string            `json:"id,omitempty"`
	Name            string            `json:"name"`
	FoodType        string            `json:"food_type"`
	Nutrient        string            `json:"nutrient"`
	StorageType     string            `json:"storage_type"`
	StockDate       string            `json:"stock_date"`  // YYYY-MM-DD
	ExpiryDate      string            `json:"expiry_date"` // YYYY-MM-DD
	ExpiryEstimated bool              `json:"expiry_estimated"`
	QuantityValue   float64           `json:"quantity_value"`
	QuantityUnit    string            `json:"quantity_unit"`
	Caller          map[string]string `json:"caller,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

func fromRecord(r inventory.Record) FoodStock {
	return FoodStock{
		Name:            r.Name,
		FoodType:        r.FoodType,
		Nutrient:        r.Nutrient,
		StorageType:     r.StorageType,
		StockDate:       r.StockDate.Format(time.DateOnly),
		ExpiryDate:      r.ExpiryDate.Format(time.DateOnly),
		ExpiryEstimated: r.ExpiryEstimated,
		QuantityValue:   r.QuantityValue,
		QuantityUnit:    r.QuantityUnit,
		Caller:          r.Caller,
		CreatedAt:       r.CreatedAt,
	}
}

func (f FoodStock) record() inventory.Record {
	r := inventory.Record{
		ID:              f.ID,
		Name:            f.Name,
		FoodType:        f.FoodType,
		Nutrient:        f.Nutrient,
		StorageType:     f.StorageType,
		ExpiryEstimated: f.ExpiryEstimated,
		QuantityValue:   f.QuantityValue,
		QuantityUnit:    f.QuantityUnit,
		Caller:          f.Caller,
		CreatedAt:       f.CreatedAt,
	}
	r.StockDate, _ = time.Parse(time.DateOnly, f.StockDate)
	r.ExpiryDate, _ = time.Parse(time.DateOnly, f.ExpiryDate)
	return r
}
