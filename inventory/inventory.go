// Package inventory records completed food items.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creastat/foodagent"
	"github.com/creastat/foodagent/fields"
)

// Item is a completed, grammar-valid set of slot values.
type Item struct {
	Name        string
	FoodType    string
	StorageType string
	Quantity    string
	StockDate   string
	ExpiryDate  string

	// Caller is opaque context from the outer transport (user id, tokens).
	Caller map[string]string
}

// Committer durably records a completed item and returns a description of
// what was stored. Failures are returned as *StorageError.
type Committer interface {
	Commit(ctx context.Context, item Item) (string, error)
}

// ListParams filters inventory listings.
type ListParams struct {
	FoodType      string
	StorageType   string
	ExpiresBefore time.Time // zero means no bound; inclusive
	Limit         int
}

// Lister reads back stored records, newest first.
type Lister interface {
	List(ctx context.Context, p ListParams) ([]Record, error)
}

// StorageError reports a failed inventory operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("inventory %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches foodagent.ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == foodagent.ErrStorage
}

// AsStorageError wraps err as a *StorageError unless it already is one.
func AsStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ItemFromFields builds an Item from session values. Every slot must be set
// and match its grammar.
func ItemFromFields(values map[fields.Key]string, caller map[string]string) (Item, error) {
	for _, k := range fields.All() {
		v, ok := values[k]
		if !ok {
			return Item{}, fmt.Errorf("%w: %s is missing", foodagent.ErrValidation, k)
		}
		if err := fields.Validate(k, v); err != nil {
			return Item{}, err
		}
	}
	return Item{
		Name:        values[fields.Name],
		FoodType:    values[fields.FoodType],
		StorageType: values[fields.StorageType],
		Quantity:    values[fields.Quantity],
		StockDate:   values[fields.StockDate],
		ExpiryDate:  values[fields.ExpiryDate],
		Caller:      caller,
	}, nil
}

// Values is the inverse of ItemFromFields.
func (it Item) Values() map[fields.Key]string {
	return map[fields.Key]string{
		fields.Name:        it.Name,
		fields.FoodType:    it.FoodType,
		fields.StorageType: it.StorageType,
		fields.Quantity:    it.Quantity,
		fields.StockDate:   it.StockDate,
		fields.ExpiryDate:  it.ExpiryDate,
	}
}

// dateKey is how dates are stored and compared.
const dateKey = time.DateOnly
