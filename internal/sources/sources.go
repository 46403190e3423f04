// Package sources defines the external data provider contracts and the
// failure taxonomy shared by the refresh pipeline.
package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/bsenturk/country-cache/internal/models"
)

var (
	ErrUnavailable = errors.New("source unavailable")
	ErrTimeout     = errors.New("source timed out")
	ErrMalformed   = errors.New("source returned a malformed payload")
)

// CountrySource fetches the full raw country list.
type CountrySource interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawCountry, error)
}

// RateSource fetches USD exchange rates keyed by upper-cased currency code.
type RateSource interface {
	Name() string
	Fetch(ctx context.Context) (map[string]float64, error)
}

// Error ties a failure kind (ErrUnavailable, ErrTimeout, ErrMalformed) to
// the provider that produced it. errors.Is matches the kind, errors.As
// recovers the provider name for user-facing detail.
type Error struct {
	Source string
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Kind)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Fail wraps cause as a typed source failure. cause may be nil.
func Fail(source string, kind, cause error) error {
	return &Error{Source: source, Kind: kind, Err: cause}
}
