package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_DefaultsAndUnknownFields(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Garde)
	assert.Empty(t, cfg.Renfort)
	assert.NotNil(t, cfg.Garde)
	assert.NotNil(t, cfg.Renfort)

	_, err = ParseConfig([]byte(`{"creneaux_gardes": []}`))
	assert.Error(t, err, "typoed keys must be rejected, not dropped")
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := Config{
		Garde: []MainSlotDef{
			{StartDay: 1, StartHour: 7, DurationHours: 48, Kind: "main-48h"},
			{StartDay: 3, StartHour: 7, DurationHours: 24, Kind: "main-24h"},
			{StartDay: 5, StartHour: 0, DurationHours: 168}, // kind optional, midnight start
		},
		Renfort: []ReinforcementDef{
			{Day: 3, StartHour: 11, EndHour: 19},
		},
	}

	errs, warnings := Validate(cfg)
	assert.Empty(t, errs)
	assert.Empty(t, warnings)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Config{
		Garde: []MainSlotDef{
			{StartDay: 0, StartHour: 7, DurationHours: 24},  // missing start day
			{StartDay: 8, StartHour: 25, DurationHours: 24}, // day and hour out of range
			{StartDay: 2, StartHour: 7, DurationHours: 200}, // over the weekly maximum
			{StartDay: 2, StartHour: 7, DurationHours: 24, Kind: "night-12h"},
		},
		Renfort: []ReinforcementDef{
			{Day: 6, StartHour: 18, EndHour: 10}, // end before start
			{Day: 6, StartHour: 10, EndHour: 10}, // zero-length
		},
	}

	errs, _ := Validate(cfg)
	require.NotEmpty(t, errs)
	assert.GreaterOrEqual(t, len(errs), 7)

	joined := errs.Error()
	assert.Contains(t, joined, "jour_debut")
	assert.Contains(t, joined, "duree_heures")
	assert.Contains(t, joined, "unknown shift kind")
	assert.Contains(t, joined, "heure_fin must be strictly after heure_debut")
}

func TestValidate_BoundaryDurations(t *testing.T) {
	errs, _ := Validate(Config{Garde: []MainSlotDef{{StartDay: 1, StartHour: 7, DurationHours: 168}}})
	assert.Empty(t, errs, "168h is the inclusive weekly maximum")

	errs, _ = Validate(Config{Garde: []MainSlotDef{{StartDay: 1, StartHour: 7, DurationHours: 169}}})
	assert.NotEmpty(t, errs)
}

func TestValidate_Warnings(t *testing.T) {
	t.Run("empty pattern", func(t *testing.T) {
		errs, warnings := Validate(Config{Garde: []MainSlotDef{}, Renfort: []ReinforcementDef{}})
		assert.Empty(t, errs, "an empty pattern is legal")
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "no slots")
	})

	t.Run("duration deviates from declared kind", func(t *testing.T) {
		cfg := Config{Garde: []MainSlotDef{
			{StartDay: 1, StartHour: 7, DurationHours: 30, Kind: "main-24h"},
			{StartDay: 3, StartHour: 7, DurationHours: 49, Kind: "main-48h"}, // within 1h tolerance
		}}
		errs, warnings := Validate(cfg)
		assert.Empty(t, errs)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "main-24h")
	})

	t.Run("oversized configuration", func(t *testing.T) {
		var cfg Config
		for i := 0; i < 20000; i++ {
			cfg.Renfort = append(cfg.Renfort, ReinforcementDef{Day: 1 + i%7, StartHour: 10, EndHour: 18})
		}
		_, warnings := Validate(cfg)
		found := false
		for _, w := range warnings {
			if strings.Contains(w, "approaching") {
				found = true
			}
		}
		assert.True(t, found, "expected a size warning, got %v", warnings)
	})
}
