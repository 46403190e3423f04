package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bsenturk/country-cache/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrBadOrdering = errors.New("unsupported ordering field")
)

// ListFilter narrows and orders List results. Region and CurrencyCode match
// case-insensitively. Ordering is a field name with an optional "-" prefix
// for descending. Limit <= 0 means no limit.
type ListFilter struct {
	Region       string
	CurrencyCode string
	Ordering     string
	Limit        int
	Offset       int
}

var sortable = map[string]bool{
	"name":              true,
	"population":        true,
	"estimated_gdp":     true,
	"last_refreshed_at": true,
}

// Order resolves the Ordering expression to a whitelisted field and
// direction. Empty ordering sorts by name ascending.
func (f ListFilter) Order() (field string, desc bool, err error) {
	o := strings.TrimSpace(f.Ordering)
	if o == "" {
		return "name", false, nil
	}
	if strings.HasPrefix(o, "-") {
		desc = true
		o = o[1:]
	}
	if !sortable[o] {
		return "", false, ErrBadOrdering
	}
	return o, desc, nil
}

type Countries interface {
	List(ctx context.Context, f ListFilter) ([]models.Country, error)
	GetByName(ctx context.Context, name string) (models.Country, error)
	Delete(ctx context.Context, name string) error

	// Names returns the lower-cased natural keys of every persisted record.
	Names(ctx context.Context) (map[string]struct{}, error)

	// ReplaceBulk applies both partitions in one atomic operation, stamping
	// every written record with refreshedAt. On error, prior state is intact.
	ReplaceBulk(ctx context.Context, inserts, updates []models.Country, refreshedAt time.Time) error

	TopByGDP(ctx context.Context, n int) ([]models.Country, error)
	Status(ctx context.Context) (models.CacheStatus, error)
}
