package models

import "time"

// Country is the persisted record, keyed by its unique name.
// Nullable columns are pointers: a country without a reported currency has
// no currency_code, and without a matching rate it has no exchange_rate or
// estimated_gdp. EstimatedGDP is derived during reconciliation and is never
// mutated independently of the fields it is computed from.
type Country struct {
	Name            string    `json:"name"`
	Capital         *string   `json:"capital"`
	Region          *string   `json:"region"`
	Population      int64     `json:"population"`
	CurrencyCode    *string   `json:"currency_code"`
	ExchangeRate    *float64  `json:"exchange_rate"`
	EstimatedGDP    *float64  `json:"estimated_gdp"`
	FlagURL         *string   `json:"flag_url"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

// RawCountry is one record from the country source, before reconciliation
// attaches an exchange rate.
type RawCountry struct {
	Name         string
	Capital      *string
	Region       *string
	Population   int64
	CurrencyCode *string
	FlagURL      *string
}

// CacheStatus summarizes the persisted set. LastRefreshedAt is nil until the
// first successful refresh.
type CacheStatus struct {
	TotalCountries  int        `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

// RefreshOutcome is returned by a successful refresh run.
type RefreshOutcome struct {
	Status             string `json:"status"`
	CountriesProcessed int    `json:"countries_processed"`
}
