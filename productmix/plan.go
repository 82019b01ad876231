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

// Package productmix formulates and solves the product-mix problem: choose
// production quantities that maximize total profit under a machine-time budget
// and a labor-time budget.
//
// Build creates a Plan holding the model. Plan.Solve runs a solver and extracts
// a Result. Plan.Resolve changes the right-hand side of one named constraint
// and solves again without rebuilding the model. Results never share state,
// so a result is not affected by later mutations or solves.
package productmix

import (
	"context"
	"fmt"
	"sync"

	log "github.com/golang/glog"

	"github.com/google/or-tools/productmix/mipmodel"
	"github.com/google/or-tools/productmix/mipsolver"
)

// Names of the two resource constraints of a plan.
const (
	MachineTime = "Machine_Time"
	LaborTime   = "Labor_Time"
)

// Solver solves a model. mipsolver.Solver implements it.
type Solver interface {
	Solve(ctx context.Context, m *mipmodel.Model) (*mipsolver.Response, error)
}

// Plan is a built product-mix model. It may be solved several times; the only
// mutation it supports is changing a constraint's right-hand side.
//
// Plan is safe for concurrent use, but solves and mutations are serialized.
type Plan struct {
	mu       sync.Mutex
	model    *mipmodel.Model
	products []Product
	vars     []mipmodel.Var // parallel to products
}

// Build creates the model for `catalog` with one variable per product bounded
// by [0, MaxUnits], a profit-maximizing objective, and the two budget
// constraints named MachineTime and LaborTime.
func Build(catalog Catalog, machineBudget, laborBudget float64) (*Plan, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", ErrValidation)
	}
	if err := validateBudget("machine time", machineBudget); err != nil {
		return nil, err
	}
	if err := validateBudget("labor time", laborBudget); err != nil {
		return nil, err
	}

	p := &Plan{
		model:    mipmodel.New("product_mix"),
		products: append([]Product(nil), catalog...),
		vars:     make([]mipmodel.Var, len(catalog)),
	}
	seen := make(map[string]bool, len(catalog))
	owner := make(map[string]string, len(catalog))
	for i, prod := range p.products {
		if err := prod.validate(); err != nil {
			return nil, err
		}
		if seen[prod.Name] {
			return nil, fmt.Errorf("%w: duplicate product %q", ErrValidation, prod.Name)
		}
		seen[prod.Name] = true
		name := VarName(prod.Name)
		if other, ok := owner[name]; ok {
			return nil, fmt.Errorf("%w: products %q and %q both map to %q", ErrNameCollision, other, prod.Name, name)
		}
		owner[name] = prod.Name
		v, err := p.model.NewVar(0, float64(prod.MaxUnits), !prod.Fractional, name)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", prod.Name, err)
		}
		p.vars[i] = v
	}

	profit := mipmodel.NewLinearExpr()
	machine := mipmodel.NewLinearExpr()
	labor := mipmodel.NewLinearExpr()
	for i, prod := range p.products {
		profit.AddTerm(p.vars[i], prod.Profit)
		machine.AddTerm(p.vars[i], prod.MachineTime)
		labor.AddTerm(p.vars[i], prod.LaborTime)
	}
	p.model.Maximize(profit)
	if _, err := p.model.AddLessOrEqual(machine, machineBudget, MachineTime); err != nil {
		return nil, err
	}
	if _, err := p.model.AddLessOrEqual(labor, laborBudget, LaborTime); err != nil {
		return nil, err
	}
	log.V(1).Infof("Built product-mix model: %d products, machine budget %v, labor budget %v", len(catalog), machineBudget, laborBudget)
	return p, nil
}

// Model returns the underlying model. It must not be mutated while a solve is
// in progress; use SetConstraintBound instead.
func (p *Plan) Model() *mipmodel.Model {
	return p.model
}

// Products returns a copy of the catalog the plan was built from.
func (p *Plan) Products() Catalog {
	return append(Catalog(nil), p.products...)
}

// Var returns the decision variable of the named product.
func (p *Plan) Var(product string) (mipmodel.Var, bool) {
	for i, prod := range p.products {
		if prod.Name == product {
			return p.vars[i], true
		}
	}
	return mipmodel.Var{}, false
}

// Bound returns the right-hand side of the named constraint.
func (p *Plan) Bound(constraint string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.model.LookupConstraint(constraint)
	if !ok {
		return 0, fmt.Errorf("%w: constraint %q", ErrNotFound, constraint)
	}
	return c.Bound(), nil
}

// SetConstraintBound overwrites the right-hand side of the named constraint.
// Only the scalar changes; the left-hand side and the variable bounds are left
// untouched.
func (p *Plan) SetConstraintBound(constraint string, rhs float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setBound(constraint, rhs)
}

func (p *Plan) setBound(constraint string, rhs float64) error {
	if !finite(rhs) {
		return fmt.Errorf("%w: constraint %q: rhs %v is not finite", ErrValidation, constraint, rhs)
	}
	if err := p.model.SetConstraintBound(constraint, rhs); err != nil {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return nil
}

// Solve solves the model from scratch and returns a new Result.
func (p *Plan) Solve(ctx context.Context, s Solver) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.solve(ctx, s)
}

func (p *Plan) solve(ctx context.Context, s Solver) (*Result, error) {
	resp, err := s.Solve(ctx, p.model)
	if err != nil {
		return nil, fmt.Errorf("solving %q: %w", p.model.Name(), err)
	}
	return Extract(p, resp), nil
}

// Resolve sets the right-hand side of the named constraint and solves the
// model again. Previously returned results are not modified.
func (p *Plan) Resolve(ctx context.Context, s Solver, constraint string, rhs float64) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.setBound(constraint, rhs); err != nil {
		return nil, err
	}
	return p.solve(ctx, s)
}

// WhatIf answers "what if the named budget changed by delta" for each delta,
// by sequential set-bound and re-solve cycles starting from the current
// right-hand side. The original right-hand side is restored before returning.
func (p *Plan) WhatIf(ctx context.Context, s Solver, constraint string, deltas ...float64) (results []*Result, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.model.LookupConstraint(constraint)
	if !ok {
		return nil, fmt.Errorf("%w: constraint %q", ErrNotFound, constraint)
	}
	base := c.Bound()
	defer func() {
		if rerr := p.setBound(constraint, base); rerr != nil && err == nil {
			err = rerr
		}
	}()
	for _, d := range deltas {
		if err := p.setBound(constraint, base+d); err != nil {
			return nil, err
		}
		r, err := p.solve(ctx, s)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}
