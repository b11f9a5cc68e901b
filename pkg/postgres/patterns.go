package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adelpech/villa-roster/pkg/core/pattern"
)

const patternColumns = `id, name, config, usage_count, created_at, updated_at`

// GetPattern retrieves one stored pattern by primary key, or nil when absent.
func (d *DB) GetPattern(ctx context.Context, id string) (*pattern.Pattern, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+patternColumns+` FROM shift_patterns WHERE id = $1
	`, id)
	return scanPattern(row)
}

// GetPatternByName retrieves a pattern by exact name, or nil when absent.
func (d *DB) GetPatternByName(ctx context.Context, name string) (*pattern.Pattern, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+patternColumns+` FROM shift_patterns WHERE name = $1
	`, name)
	return scanPattern(row)
}

func scanPattern(row pgx.Row) (*pattern.Pattern, error) {
	var p pattern.Pattern
	var raw []byte
	if err := row.Scan(&p.ID, &p.Name, &raw, &p.UsageCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan pattern: %w", err)
	}

	cfg, err := pattern.ParseConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("stored pattern %s has invalid config: %w", p.ID, err)
	}
	p.Config = cfg
	return &p, nil
}

// ListPatterns retrieves every stored pattern ordered by name.
func (d *DB) ListPatterns(ctx context.Context) ([]pattern.Pattern, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+patternColumns+` FROM shift_patterns ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []pattern.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}
	return patterns, nil
}

// CreatePattern inserts a new pattern with its config serialized to JSONB.
func (d *DB) CreatePattern(ctx context.Context, p *pattern.Pattern) error {
	raw, err := pattern.MarshalConfig(p.Config)
	if err != nil {
		return fmt.Errorf("failed to serialize pattern config: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO shift_patterns (id, name, config, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Name, raw, p.UsageCount, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pattern: %w", err)
	}
	return nil
}

// UpdatePattern rewrites a pattern's name, config and update timestamp.
func (d *DB) UpdatePattern(ctx context.Context, p *pattern.Pattern) error {
	raw, err := pattern.MarshalConfig(p.Config)
	if err != nil {
		return fmt.Errorf("failed to serialize pattern config: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		UPDATE shift_patterns
		SET name = $2, config = $3, updated_at = $4
		WHERE id = $1
	`, p.ID, p.Name, raw, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", err)
	}
	return nil
}

// DeletePattern removes a pattern.
func (d *DB) DeletePattern(ctx context.Context, id string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM shift_patterns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}
	return nil
}

// IncrementPatternUsage bumps a pattern's usage counter.
func (d *DB) IncrementPatternUsage(ctx context.Context, id string) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE shift_patterns SET usage_count = usage_count + 1 WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment pattern usage: %w", err)
	}
	return nil
}
