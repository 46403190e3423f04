package services

import (
	"log/slog"
	"strings"

	"github.com/bsenturk/country-cache/internal/models"
)

// gdpPerCapitaProxy is the business constant used to estimate GDP:
// population * proxy / exchange_rate. It is fixed so that refreshing twice
// over identical source data yields identical records.
const gdpPerCapitaProxy = 1500.0

// reconcile joins raw country records with exchange rates by currency code
// (case-insensitive) into candidate records. Countries without a matching
// rate are kept with a nil rate and nil GDP. Records with an empty name are
// skipped. Duplicate names within one payload: last seen wins.
func reconcile(raw []models.RawCountry, rates map[string]float64) []models.Country {
	byName := make(map[string]models.Country, len(raw))
	order := make([]string, 0, len(raw))

	for _, rc := range raw {
		if strings.TrimSpace(rc.Name) == "" {
			slog.Warn("skipping country with missing name")
			continue
		}

		c := models.Country{
			Name:         rc.Name,
			Capital:      rc.Capital,
			Region:       rc.Region,
			Population:   rc.Population,
			CurrencyCode: rc.CurrencyCode,
			FlagURL:      rc.FlagURL,
		}
		if rc.CurrencyCode != nil {
			if rate, ok := rates[strings.ToUpper(*rc.CurrencyCode)]; ok {
				r := rate
				c.ExchangeRate = &r
				if gdp, ok := estimateGDP(rc.Population, rate); ok {
					c.EstimatedGDP = &gdp
				}
			}
		}

		key := strings.ToLower(rc.Name)
		if _, seen := byName[key]; !seen {
			order = append(order, key)
		}
		byName[key] = c
	}

	out := make([]models.Country, 0, len(order))
	for _, key := range order {
		out = append(out, byName[key])
	}
	return out
}

// estimateGDP is defined only for positive population and rate; anything
// else leaves the field null.
func estimateGDP(population int64, rate float64) (float64, bool) {
	if population <= 0 || rate <= 0 {
		return 0, false
	}
	return float64(population) * gdpPerCapitaProxy / rate, true
}

// classify partitions candidates against the persisted name set. Names
// compare case-insensitively; a match means the whole record is replaced.
func classify(candidates []models.Country, existing map[string]struct{}) (inserts, updates []models.Country) {
	for _, c := range candidates {
		if _, ok := existing[strings.ToLower(c.Name)]; ok {
			updates = append(updates, c)
		} else {
			inserts = append(inserts, c)
		}
	}
	return inserts, updates
}
