// Package pattern defines the reusable weekly roster configuration
// (squelette de garde): a named JSON document describing main-shift and
// reinforcement slot definitions that can be instantiated into any month.
package pattern

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// MainSlotDef describes one weekly main-shift opening. Days use ISO numbering
// (1 = Monday .. 7 = Sunday).
type MainSlotDef struct {
	StartDay      int    `json:"jour_debut" validate:"required,min=1,max=7"`
	StartHour     int    `json:"heure_debut" validate:"min=0,max=23"`
	DurationHours int    `json:"duree_heures" validate:"required,min=1,max=168"`
	Kind          string `json:"type,omitempty" validate:"omitempty,oneof=main-24h main-48h"`
}

// ReinforcementDef describes one weekly reinforcement opening; start and end
// fall on the same day, so the end hour must be strictly after the start.
type ReinforcementDef struct {
	Day       int `json:"jour" validate:"required,min=1,max=7"`
	StartHour int `json:"heure_debut" validate:"min=0,max=23"`
	EndHour   int `json:"heure_fin" validate:"required,min=1,max=23,gtfield=StartHour"`
}

// Config is the full weekly configuration of a pattern.
type Config struct {
	Garde   []MainSlotDef      `json:"creneaux_garde" validate:"dive"`
	Renfort []ReinforcementDef `json:"creneaux_renfort" validate:"dive"`
}

// Pattern is a named, stored configuration with a usage counter incremented
// on every application to a month.
type Pattern struct {
	ID         string
	Name       string
	Config     Config
	UsageCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParseConfig decodes raw JSON into a Config. Unknown fields are rejected so
// authoring typos surface instead of being silently dropped. The two slot
// arrays default to empty when absent.
func ParseConfig(raw []byte) (Config, error) {
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid pattern configuration: %w", err)
	}
	if cfg.Garde == nil {
		cfg.Garde = []MainSlotDef{}
	}
	if cfg.Renfort == nil {
		cfg.Renfort = []ReinforcementDef{}
	}
	return cfg, nil
}

// MarshalConfig serializes a Config back to its stored JSON form.
func MarshalConfig(cfg Config) ([]byte, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize pattern configuration: %w", err)
	}
	return raw, nil
}
