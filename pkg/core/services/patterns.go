package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/core/pattern"
	"github.com/adelpech/villa-roster/pkg/db"
)

// PatternResult pairs a saved pattern with the non-blocking authoring
// warnings its configuration raised.
type PatternResult struct {
	Pattern  *pattern.Pattern
	Warnings []string
}

// CreatePattern validates and stores a new named pattern. Structural errors
// block the save and are returned together; warnings do not.
func CreatePattern(ctx context.Context, store db.PatternStore, logger *zap.Logger, name string, cfg pattern.Config) (*PatternResult, error) {
	if name == "" {
		return nil, model.Refuse("pattern name is required")
	}

	errs, warnings := pattern.Validate(cfg)
	if len(errs) > 0 {
		return nil, errs
	}

	existing, err := store.GetPatternByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check pattern name: %w", err)
	}
	if existing != nil {
		return nil, model.Refuse(fmt.Sprintf("a pattern named %q already exists", name))
	}

	now := time.Now().UTC()
	p := &pattern.Pattern{
		ID:        uuid.New().String(),
		Name:      name,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreatePattern(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create pattern: %w", err)
	}

	logger.Info("Pattern created",
		zap.String("pattern_id", p.ID),
		zap.String("name", p.Name),
		zap.Int("warnings", len(warnings)))

	return &PatternResult{Pattern: p, Warnings: warnings}, nil
}

// UpdatePattern validates and rewrites an existing pattern's name and
// configuration. Name uniqueness excludes the pattern being updated.
func UpdatePattern(ctx context.Context, store db.PatternStore, logger *zap.Logger, id, name string, cfg pattern.Config) (*PatternResult, error) {
	p, err := store.GetPattern(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pattern: %w", err)
	}
	if p == nil {
		return nil, model.Refuse("pattern not found")
	}

	if name == "" {
		return nil, model.Refuse("pattern name is required")
	}

	errs, warnings := pattern.Validate(cfg)
	if len(errs) > 0 {
		return nil, errs
	}

	if name != p.Name {
		existing, err := store.GetPatternByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to check pattern name: %w", err)
		}
		if existing != nil && existing.ID != p.ID {
			return nil, model.Refuse(fmt.Sprintf("a pattern named %q already exists", name))
		}
	}

	p.Name = name
	p.Config = cfg
	p.UpdatedAt = time.Now().UTC()
	if err := store.UpdatePattern(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update pattern: %w", err)
	}

	logger.Info("Pattern updated", zap.String("pattern_id", p.ID), zap.String("name", p.Name))

	return &PatternResult{Pattern: p, Warnings: warnings}, nil
}

// DuplicatePattern copies an existing pattern under a fresh unique name with
// a reset usage counter.
func DuplicatePattern(ctx context.Context, store db.PatternStore, logger *zap.Logger, id string) (*pattern.Pattern, error) {
	src, err := store.GetPattern(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pattern: %w", err)
	}
	if src == nil {
		return nil, model.Refuse("pattern not found")
	}

	name, err := availableCopyName(ctx, store, src.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dup := &pattern.Pattern{
		ID:        uuid.New().String(),
		Name:      name,
		Config:    src.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreatePattern(ctx, dup); err != nil {
		return nil, fmt.Errorf("failed to create pattern copy: %w", err)
	}

	logger.Info("Pattern duplicated",
		zap.String("source_id", src.ID),
		zap.String("copy_id", dup.ID),
		zap.String("copy_name", dup.Name))

	return dup, nil
}

// DeletePattern removes a pattern.
func DeletePattern(ctx context.Context, store db.PatternStore, logger *zap.Logger, id string) error {
	p, err := store.GetPattern(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch pattern: %w", err)
	}
	if p == nil {
		return model.Refuse("pattern not found")
	}

	if err := store.DeletePattern(ctx, id); err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}

	logger.Info("Pattern deleted", zap.String("pattern_id", id), zap.String("name", p.Name))
	return nil
}

// availableCopyName appends "(copie)" suffixes until the name is free.
func availableCopyName(ctx context.Context, store db.PatternStore, base string) (string, error) {
	name := base + " (copie)"
	for n := 2; ; n++ {
		existing, err := store.GetPatternByName(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to check pattern name: %w", err)
		}
		if existing == nil {
			return name, nil
		}
		name = fmt.Sprintf("%s (copie %d)", base, n)
	}
}
