// Package config loads the YAML configuration file and supplies
// defaults for everything it leaves out.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kbhatt/khata/internal/details"
)

// seedCategories is the built-in category list; configured extras are
// appended to it.
var seedCategories = []string{
	"Automobile",
	"Charity",
	"Clothes",
	"Doctor Consultation",
	"Earned Interest",
	"Eating Out",
	"Education",
	"Electronic Gadgets",
	"Entertainment",
	"Fuel",
	"Gift",
	"Groceries",
	"Gym",
	"Health Insurance",
	"Housing",
	"Investment",
	"Medication",
	"Personal Care",
	"Public Transit",
	"Salary",
	"Shoes",
	"Sports",
	"Takeaway",
	"Travel",
	"Utilities",
}

// Config is the full runtime configuration.
type Config struct {
	// DB is the sqlite database path.
	DB string `yaml:"db"`

	// AxisCustomerID personalizes the axis parser: statement lines
	// prefixed with this id are treated as customer-initiated admin
	// instructions.
	AxisCustomerID string `yaml:"axis_customer_id"`

	// BankCodeMax bounds the token length treated as a bank code when
	// disambiguating UPI field order.
	BankCodeMax int `yaml:"bank_code_max"`

	// ExtraCategories extends the built-in category list.
	ExtraCategories []string `yaml:"extra_categories"`

	// Tags are the labels available during review.
	Tags []string `yaml:"tags"`

	// Cities and Countries override the location suffixes stripped
	// from credit-card merchant text.
	Cities    []string `yaml:"cities"`
	Countries []string `yaml:"countries"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DB:          "expenses.db",
		BankCodeMax: details.DefaultBankCodeMax,
		Cities:      details.DefaultCities,
		Countries:   details.DefaultCountries,
	}
}

// Load reads the configuration at path over the defaults. A missing
// file is not an error; unknown keys are.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := parse(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.DB == "" {
		return Config{}, fmt.Errorf("config %s: db path cannot be empty", path)
	}
	if cfg.BankCodeMax <= 0 {
		return Config{}, fmt.Errorf("config %s: bank_code_max must be positive", path)
	}
	return cfg, nil
}

func parse(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file, defaults apply.
			return nil
		}
		return err
	}
	return nil
}

// Categories returns the seed list plus configured extras.
func (c Config) Categories() []string {
	return append(append([]string(nil), seedCategories...), c.ExtraCategories...)
}
