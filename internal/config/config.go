package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// PolicyConfig holds the staffing-policy knobs applied by the core services.
type PolicyConfig struct {
	// AnnualDayCeiling is the maximum worked days per user per calendar year.
	AnnualDayCeiling int `yaml:"annualDayCeiling" validate:"required,min=1"`
	// AnnualDayWarning is the running total at which the validation engine
	// starts warning before the ceiling is reached.
	AnnualDayWarning int `yaml:"annualDayWarning" validate:"required,min=1"`
	// PaidLeaveCode is the leave-type code mirrored into the payroll
	// paid-leave counter.
	PaidLeaveCode string `yaml:"paidLeaveCode" validate:"required"`
	// ShortSlotHours and LongSlotHours bound the duration warnings raised on
	// assignment.
	ShortSlotHours int `yaml:"shortSlotHours" validate:"required,min=1"`
	LongSlotHours  int `yaml:"longSlotHours" validate:"required,gtfield=ShortSlotHours"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string       `yaml:"databaseURL" validate:"required"`
	Policy      PolicyConfig `yaml:"policy"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration defaults applied before the file is read.
func Default() *Config {
	return &Config{
		Policy: PolicyConfig{
			AnnualDayCeiling: 258,
			AnnualDayWarning: 240,
			PaidLeaveCode:    "CP",
			ShortSlotHours:   7,
			LongSlotHours:    72,
		},
	}
}

// LoadWithEnv loads and validates the configuration for the given environment.
// It looks for roster_config_<env>.yaml in the current directory first, then
// in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// Missing policy fields keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration struct.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// findConfigFile searches for the environment's config file in the current
// directory and the home directory.
func findConfigFile(env string) (string, error) {
	configFileName := fmt.Sprintf("roster_config_%s.yaml", env)

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
