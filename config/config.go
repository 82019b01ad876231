// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the configuration of a product-mix run.
//
// A configuration file may be YAML, TOML or JSON. Any top-level or nested key
// can be overridden from the environment with the PRODUCTMIX_ prefix, dots
// replaced by underscores (e.g. PRODUCTMIX_SOLVER_MAX_NODES).
//
//	machine_budget: 240
//	labor_budget: 220
//	products:
//	  - {name: Apple Juice, profit: 25, machine_time: 3, labor_time: 2, max_units: 60}
//	what_if:
//	  - {constraint: Machine_Time, delta: 20}
package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/google/or-tools/productmix/catalog"
	"github.com/google/or-tools/productmix/mipsolver"
	"github.com/google/or-tools/productmix/productmix"
)

// Config is the configuration of a run.
type Config struct {
	MachineBudget *float64  `mapstructure:"machine_budget" validate:"required,gte=0"`
	LaborBudget   *float64  `mapstructure:"labor_budget"   validate:"required,gte=0"`
	CatalogFile   string    `mapstructure:"catalog_file"   validate:"required_without=Products,excluded_with=Products"`
	Products      []Product `mapstructure:"products"       validate:"required_without=CatalogFile,dive"`
	Solver        Solver    `mapstructure:"solver"`
	WhatIf        []WhatIf  `mapstructure:"what_if"        validate:"dive"`

	dir string
}

// Product is an inline catalog entry.
type Product struct {
	Name        string  `mapstructure:"name"         validate:"required"`
	Profit      float64 `mapstructure:"profit"`
	MachineTime float64 `mapstructure:"machine_time"`
	LaborTime   float64 `mapstructure:"labor_time"`
	MaxUnits    int64   `mapstructure:"max_units"    validate:"gte=0"`
	Fractional  bool    `mapstructure:"fractional"`
}

// Solver holds the solver parameters.
type Solver struct {
	MaxNodes             int           `mapstructure:"max_nodes"             validate:"gte=0"`
	IntegralityTolerance float64       `mapstructure:"integrality_tolerance" validate:"gte=0,lt=0.5"`
	TimeLimit            time.Duration `mapstructure:"time_limit"            validate:"gte=0"`
}

// WhatIf is a budget change to evaluate against the baseline.
type WhatIf struct {
	Constraint string  `mapstructure:"constraint" validate:"oneof=Machine_Time Labor_Time"`
	Delta      float64 `mapstructure:"delta"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PRODUCTMIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Budgets may come from the environment alone.
	_ = v.BindEnv("machine_budget")
	_ = v.BindEnv("labor_budget")
	v.SetDefault("solver.max_nodes", mipsolver.DefaultMaxNodes)
	v.SetDefault("solver.integrality_tolerance", mipsolver.DefaultIntegralityTolerance)
	v.SetDefault("solver.time_limit", "0s")
	return v
}

// Load reads and validates the configuration file at `path`. The format is
// taken from the file extension.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	return decode(v, filepath.Dir(path))
}

// Read reads and validates a configuration of the given format ("yaml",
// "toml" or "json") from `r`. A relative catalog_file is resolved against the
// working directory.
func Read(r io.Reader, format string) (*Config, error) {
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	return decode(v, ".")
}

func decode(v *viper.Viper, dir string) (*Config, error) {
	cfg := &Config{dir: dir}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Catalog returns the products, read from the catalog file when one is set.
func (c *Config) Catalog() (productmix.Catalog, error) {
	if c.CatalogFile != "" {
		path := c.CatalogFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.dir, path)
		}
		return catalog.ReadCSVFile(path)
	}
	out := make(productmix.Catalog, 0, len(c.Products))
	for _, p := range c.Products {
		out = append(out, productmix.Product{
			Name:        p.Name,
			Profit:      p.Profit,
			MachineTime: p.MachineTime,
			LaborTime:   p.LaborTime,
			MaxUnits:    p.MaxUnits,
			Fractional:  p.Fractional,
		})
	}
	return out, nil
}

// Parameters returns the solver parameters.
func (c *Config) Parameters() mipsolver.Parameters {
	return mipsolver.Parameters{
		MaxNodes:             c.Solver.MaxNodes,
		IntegralityTolerance: c.Solver.IntegralityTolerance,
	}
}
