package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bsenturk/country-cache/internal/models"
	"github.com/bsenturk/country-cache/internal/repository"
)

type countriesRepo struct{ pool *pgxpool.Pool }

const countryColumns = `name, capital, region, population, currency_code, exchange_rate, estimated_gdp, flag_url, last_refreshed_at`

func scanCountry(row pgx.Row) (models.Country, error) {
	var c models.Country
	err := row.Scan(&c.Name, &c.Capital, &c.Region, &c.Population, &c.CurrencyCode,
		&c.ExchangeRate, &c.EstimatedGDP, &c.FlagURL, &c.LastRefreshedAt)
	return c, err
}

func (r *countriesRepo) List(ctx context.Context, f repository.ListFilter) ([]models.Country, error) {
	field, desc, err := f.Order()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + countryColumns + ` FROM countries`)

	var args []any
	var conds []string
	if f.Region != "" {
		args = append(args, f.Region)
		conds = append(conds, fmt.Sprintf("lower(region) = lower($%d)", len(args)))
	}
	if f.CurrencyCode != "" {
		args = append(args, f.CurrencyCode)
		conds = append(conds, fmt.Sprintf("lower(currency_code) = lower($%d)", len(args)))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	// field comes from the ListFilter whitelist, never from raw input
	if desc {
		b.WriteString(" ORDER BY " + field + " DESC NULLS LAST")
	} else {
		b.WriteString(" ORDER BY " + field + " ASC")
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		b.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		b.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := r.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Country
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *countriesRepo) GetByName(ctx context.Context, name string) (models.Country, error) {
	c, err := scanCountry(r.pool.QueryRow(ctx,
		`SELECT `+countryColumns+` FROM countries WHERE lower(name) = lower($1)`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Country{}, repository.ErrNotFound
	}
	return c, err
}

func (r *countriesRepo) Delete(ctx context.Context, name string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM countries WHERE lower(name) = lower($1)`, name)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *countriesRepo) Names(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT lower(name) FROM countries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

// ReplaceBulk runs every insert and update, plus the cache_status generation
// row, inside one transaction. A failure anywhere rolls the whole batch back.
func (r *countriesRepo) ReplaceBulk(ctx context.Context, inserts, updates []models.Country, refreshedAt time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // no-op after a successful commit

	const insertQ = `
INSERT INTO countries (` + countryColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	const updateQ = `
UPDATE countries
   SET capital=$2, region=$3, population=$4, currency_code=$5,
       exchange_rate=$6, estimated_gdp=$7, flag_url=$8, last_refreshed_at=$9
 WHERE lower(name) = lower($1)`

	batch := &pgx.Batch{}
	for _, c := range inserts {
		batch.Queue(insertQ, c.Name, c.Capital, c.Region, c.Population, c.CurrencyCode,
			c.ExchangeRate, c.EstimatedGDP, c.FlagURL, refreshedAt)
	}
	for _, c := range updates {
		batch.Queue(updateQ, c.Name, c.Capital, c.Region, c.Population, c.CurrencyCode,
			c.ExchangeRate, c.EstimatedGDP, c.FlagURL, refreshedAt)
	}
	batch.Queue(`
INSERT INTO cache_status (id, last_full_refresh_at) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET last_full_refresh_at = EXCLUDED.last_full_refresh_at`, refreshedAt)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *countriesRepo) TopByGDP(ctx context.Context, n int) ([]models.Country, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+countryColumns+` FROM countries
		  WHERE estimated_gdp IS NOT NULL
		  ORDER BY estimated_gdp DESC
		  LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Country
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *countriesRepo) Status(ctx context.Context) (models.CacheStatus, error) {
	var cs models.CacheStatus
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM countries`).Scan(&cs.TotalCountries); err != nil {
		return models.CacheStatus{}, err
	}
	err := r.pool.QueryRow(ctx, `SELECT last_full_refresh_at FROM cache_status WHERE id = 1`).Scan(&cs.LastRefreshedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// before the first migration seeded the row
		return cs, nil
	}
	return cs, err
}
