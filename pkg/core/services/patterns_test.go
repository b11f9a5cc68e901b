package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adelpech/villa-roster/pkg/core/model"
	"github.com/adelpech/villa-roster/pkg/core/pattern"
)

func weekConfig() pattern.Config {
	return pattern.Config{
		Garde:   []pattern.MainSlotDef{{StartDay: 1, StartHour: 7, DurationHours: 48, Kind: "main-48h"}},
		Renfort: []pattern.ReinforcementDef{{Day: 3, StartHour: 11, EndHour: 19}},
	}
}

func TestCreatePattern_SavesWithUniqueName(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	logger := zap.NewNop()

	result, err := CreatePattern(ctx, store, logger, "Semaine type", weekConfig())
	require.NoError(t, err)
	assert.Equal(t, "Semaine type", result.Pattern.Name)
	assert.Empty(t, result.Warnings)
	assert.NotEmpty(t, result.Pattern.ID)

	_, err = CreatePattern(ctx, store, logger, "Semaine type", weekConfig())
	require.Error(t, err)
	assert.True(t, model.IsRefusal(err))

	_, err = CreatePattern(ctx, store, logger, "", weekConfig())
	require.Error(t, err)
	assert.True(t, model.IsRefusal(err))
}

func TestCreatePattern_StructuralErrorsBlock(t *testing.T) {
	store := newMockStore()
	cfg := pattern.Config{
		Garde: []pattern.MainSlotDef{{StartDay: 0, StartHour: 7, DurationHours: 200}},
	}

	_, err := CreatePattern(context.Background(), store, zap.NewNop(), "Casse", cfg)
	require.Error(t, err)

	var verrs pattern.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.GreaterOrEqual(t, len(verrs), 2, "both the day and the duration are out of range")
	assert.Empty(t, store.patterns)
}

func TestCreatePattern_EmptyConfigWarnsButSaves(t *testing.T) {
	store := newMockStore()

	result, err := CreatePattern(context.Background(), store, zap.NewNop(), "Vide", pattern.Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warnings)
	assert.Len(t, store.patterns, 1)
}

func TestUpdatePattern_NameUniquenessExcludesSelf(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	logger := zap.NewNop()

	created, err := CreatePattern(ctx, store, logger, "Semaine type", weekConfig())
	require.NoError(t, err)
	_, err = CreatePattern(ctx, store, logger, "Autre semaine", weekConfig())
	require.NoError(t, err)

	// Renaming to its own name is a no-op rename and always allowed.
	_, err = UpdatePattern(ctx, store, logger, created.Pattern.ID, "Semaine type", weekConfig())
	require.NoError(t, err)

	// Renaming onto another pattern's name is refused.
	_, err = UpdatePattern(ctx, store, logger, created.Pattern.ID, "Autre semaine", weekConfig())
	require.Error(t, err)
	assert.True(t, model.IsRefusal(err))

	updated, err := UpdatePattern(ctx, store, logger, created.Pattern.ID, "Semaine renommee", weekConfig())
	require.NoError(t, err)
	assert.Equal(t, "Semaine renommee", updated.Pattern.Name)
}

func TestDuplicatePattern_CopyNamesAndResetUsage(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	logger := zap.NewNop()

	created, err := CreatePattern(ctx, store, logger, "Semaine type", weekConfig())
	require.NoError(t, err)
	store.patterns[created.Pattern.ID].UsageCount = 5

	first, err := DuplicatePattern(ctx, store, logger, created.Pattern.ID)
	require.NoError(t, err)
	assert.Equal(t, "Semaine type (copie)", first.Name)
	assert.Zero(t, first.UsageCount)
	assert.Equal(t, created.Pattern.Config, first.Config)

	second, err := DuplicatePattern(ctx, store, logger, created.Pattern.ID)
	require.NoError(t, err)
	assert.Equal(t, "Semaine type (copie 2)", second.Name)
}

func TestDeletePattern(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	logger := zap.NewNop()

	created, err := CreatePattern(ctx, store, logger, "Semaine type", weekConfig())
	require.NoError(t, err)

	require.NoError(t, DeletePattern(ctx, store, logger, created.Pattern.ID))
	assert.Empty(t, store.patterns)

	err = DeletePattern(ctx, store, logger, created.Pattern.ID)
	require.Error(t, err)
	assert.True(t, model.IsRefusal(err))
}
