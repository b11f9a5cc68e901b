package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster_config_test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromPath_PolicyDefaultsSurviveMissingFields(t *testing.T) {
	path := writeConfig(t, `
databaseURL: postgres://localhost:5432/roster
policy:
  annualDayWarning: 230
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/roster", cfg.DatabaseURL)
	assert.Equal(t, 230, cfg.Policy.AnnualDayWarning, "explicit value wins")
	assert.Equal(t, 258, cfg.Policy.AnnualDayCeiling, "missing fields keep defaults")
	assert.Equal(t, "CP", cfg.Policy.PaidLeaveCode)
	assert.Equal(t, 7, cfg.Policy.ShortSlotHours)
	assert.Equal(t, 72, cfg.Policy.LongSlotHours)
}

func TestLoadFromPath_MissingDatabaseURLFailsValidation(t *testing.T) {
	path := writeConfig(t, `
policy:
  annualDayCeiling: 258
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadFromPath_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "databaseURL: [unclosed")

	_, err := LoadFromPath(path)
	require.Error(t, err)
}

func TestLoadFromPath_LongSlotMustExceedShortSlot(t *testing.T) {
	path := writeConfig(t, `
databaseURL: postgres://localhost:5432/roster
policy:
  shortSlotHours: 10
  longSlotHours: 8
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
}
