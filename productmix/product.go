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

package productmix

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrValidation is returned by Build for malformed or out-of-domain input.
	ErrValidation = errors.New("validation error")
	// ErrNameCollision is returned by Build when two products map to the same
	// variable name.
	ErrNameCollision = errors.New("variable name collision")
	// ErrNotFound is returned when a constraint name is unknown.
	ErrNotFound = errors.New("not found")
)

// Product is one row of the catalog.
type Product struct {
	Name string
	// Profit per unit produced.
	Profit float64
	// MachineTime and LaborTime are consumed per unit produced.
	MachineTime float64
	LaborTime   float64
	// MaxUnits caps the production of the product.
	MaxUnits int64
	// Fractional allows a non-integral quantity.
	Fractional bool
}

// Catalog is an ordered list of products. It is never modified by this package.
type Catalog []Product

// VarName returns the variable name used for a product: every rune outside
// [A-Za-z0-9_] is replaced by '_'.
func VarName(product string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, product)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (p Product) validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: product has an empty name", ErrValidation)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"profit", p.Profit},
		{"machine time", p.MachineTime},
		{"labor time", p.LaborTime},
	} {
		if !finite(f.v) {
			return fmt.Errorf("%w: product %q: %s %v is not finite", ErrValidation, p.Name, f.name, f.v)
		}
	}
	if p.MaxUnits < 0 {
		return fmt.Errorf("%w: product %q: max units %d is negative", ErrValidation, p.Name, p.MaxUnits)
	}
	return nil
}

func validateBudget(name string, b float64) error {
	if !finite(b) || b < 0 {
		return fmt.Errorf("%w: %s budget %v must be a non-negative number", ErrValidation, name, b)
	}
	return nil
}
