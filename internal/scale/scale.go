// Package scale abstracts the weighing device used for weight-priced products.
package scale

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrCancelled is returned when the operator dismisses the weighing step.
var ErrCancelled = errors.New("scale_cancelled")

// Reader returns one weight reading in grams.
type Reader interface {
	ReadGrams(ctx context.Context) (decimal.Decimal, error)
}

// Reading is a reading already taken by the client device.
// A zero Reading with Cancelled set reports a dismissed weighing.
type Reading struct {
	Grams     decimal.Decimal
	Cancelled bool
}

func (r Reading) ReadGrams(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if r.Cancelled {
		return decimal.Zero, ErrCancelled
	}
	return r.Grams, nil
}
