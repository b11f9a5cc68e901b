package pattern

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxConfigBytes is the storage ceiling for a serialized configuration.
const MaxConfigBytes = 60 * 1024

// sizeWarningBytes is the point at which a configuration is flagged as
// approaching the ceiling.
const sizeWarningBytes = 48 * 1024

// nominalDeviationHours is the tolerated gap between a declared kind's
// nominal duration and the authored duration before a warning is raised.
const nominalDeviationHours = 1

// ValidationErrors collects every structural violation found in a
// configuration so the caller can display the full list at once.
type ValidationErrors []string

func (e ValidationErrors) Error() string {
	return fmt.Sprintf("invalid pattern configuration: %s", strings.Join(e, "; "))
}

var validate = validator.New()

// Validate runs structural and range checks over a configuration. It returns
// every blocking error plus non-blocking authoring warnings; a nil error
// slice means the configuration may be saved regardless of warnings.
func Validate(cfg Config) (ValidationErrors, []string) {
	var errs ValidationErrors

	if err := validate.Struct(cfg); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return ValidationErrors{err.Error()}, nil
		}
		for _, fe := range fieldErrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	warnings := collectWarnings(cfg)
	return errs, warnings
}

// describeFieldError renders a validator field error using the JSON field
// names authors actually typed.
func describeFieldError(fe validator.FieldError) string {
	// Namespace looks like "Config.Garde[2].StartDay".
	loc := strings.TrimPrefix(fe.StructNamespace(), "Config.")
	loc = strings.Replace(loc, "Garde", "creneaux_garde", 1)
	loc = strings.Replace(loc, "Renfort", "creneaux_renfort", 1)

	field := jsonFieldNames[fe.StructField()]
	if field == "" {
		field = fe.StructField()
	}
	if idx := strings.LastIndex(loc, "."); idx >= 0 {
		loc = loc[:idx]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: %s is required", loc, field)
	case "min", "max":
		return fmt.Sprintf("%s: %s is out of range (got %v)", loc, field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: unknown shift kind %q", loc, fe.Value())
	case "gtfield":
		return fmt.Sprintf("%s: heure_fin must be strictly after heure_debut", loc)
	default:
		return fmt.Sprintf("%s: %s failed %s check", loc, field, fe.Tag())
	}
}

var jsonFieldNames = map[string]string{
	"StartDay":      "jour_debut",
	"StartHour":     "heure_debut",
	"DurationHours": "duree_heures",
	"Kind":          "type",
	"Day":           "jour",
	"EndHour":       "heure_fin",
}

// collectWarnings flags likely authoring mistakes without forbidding
// intentional deviations.
func collectWarnings(cfg Config) []string {
	var warnings []string

	if len(cfg.Garde) == 0 && len(cfg.Renfort) == 0 {
		warnings = append(warnings, "pattern defines no slots at all")
	}

	if raw, err := MarshalConfig(cfg); err == nil && len(raw) > sizeWarningBytes {
		warnings = append(warnings,
			fmt.Sprintf("serialized configuration is %d bytes, approaching the %d byte limit", len(raw), MaxConfigBytes))
	}

	for i, g := range cfg.Garde {
		nominal := 0
		switch g.Kind {
		case "main-24h":
			nominal = 24
		case "main-48h":
			nominal = 48
		default:
			continue
		}
		deviation := g.DurationHours - nominal
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation > nominalDeviationHours {
			warnings = append(warnings,
				fmt.Sprintf("creneaux_garde[%d]: kind %s normally lasts %dh but is configured for %dh", i, g.Kind, nominal, g.DurationHours))
		}
	}

	return warnings
}
