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

// Package mipmodel offers a small API to build mixed-integer linear models.
//
// The `Model` struct owns the variables, the objective and the constraints.
// The `Var` and `Constraint` structs are references to specific elements of a
// model and provide helpful methods for interacting with them.
// The `LinearExpr` struct provides helper methods for creating constraints and the
// objective from expressions with many variables and coefficients.
//
// Variables and the left-hand side of constraints are fixed once added. The only
// mutation a model supports after construction is changing the right-hand side of
// a named constraint, which bumps the model version.
package mipmodel

import (
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"
)

var (
	// ErrMixedModels holds the error when elements added to a model are different.
	ErrMixedModels = errors.New("elements are not part of the same model")
	// ErrDuplicateName is returned when a variable or constraint name is already used.
	ErrDuplicateName = errors.New("name already exists")
	// ErrNotFound is returned when a named element does not exist in the model.
	ErrNotFound = errors.New("not found")
	// ErrInvalidBound is returned for NaN bounds, a -inf right-hand side, or
	// lower bounds above upper bounds.
	ErrInvalidBound = errors.New("invalid bound")
)

type (
	// VarIndex is the index of a variable in the model.
	VarIndex int32
	// ConstrIndex is the index of a constraint in the model.
	ConstrIndex int32
)

type variable struct {
	name    string
	lb, ub  float64
	integer bool
}

type constraint struct {
	name  string
	terms []Term
	ub    float64
}

// Term is a single coefficient * variable product.
type Term struct {
	Var   VarIndex
	Coeff float64
}

// Objective is the linear objective of a model.
type Objective struct {
	Terms    []Term
	Offset   float64
	Maximize bool
}

// Model is a linear model with named variables and named `<=` constraints.
//
// A Model is not safe for concurrent use.
type Model struct {
	name        string
	vars        []variable
	varNames    map[string]VarIndex
	constraints []constraint
	consNames   map[string]ConstrIndex
	objective   Objective
	version     uint64
	err         error
}

// New creates and returns an empty model.
func New(name string) *Model {
	return &Model{
		name:      name,
		varNames:  make(map[string]VarIndex),
		consNames: make(map[string]ConstrIndex),
	}
}

// Name returns the name of the model.
func (m *Model) Name() string {
	return m.name
}

// Version returns the number of right-hand side mutations applied to the model.
func (m *Model) Version() uint64 {
	return m.version
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int {
	return len(m.vars)
}

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

// checkSameModelAndSetErrorf returns true if `m` and `m2` point to the same Model.
// If false, an error with the error message `format` is set on `m` if `m.err`
// is nil.
func (m *Model) checkSameModelAndSetErrorf(m2 *Model, format string, a ...any) bool {
	if m == m2 {
		return true
	}
	if m.err == nil {
		m.err = fmt.Errorf("%w: %s", ErrMixedModels, fmt.Sprintf(format, a...))
	}
	return false
}

// NewVar creates and returns a new variable with domain `[lb, ub]`. The upper
// bound may be +Inf. An error is returned if `name` is already used by another
// variable.
func (m *Model) NewVar(lb, ub float64, integer bool, name string) (Var, error) {
	if name == "" {
		name = fmt.Sprintf("x%d", len(m.vars))
	}
	if _, ok := m.varNames[name]; ok {
		return Var{}, fmt.Errorf("variable %q: %w", name, ErrDuplicateName)
	}
	if math.IsNaN(lb) || math.IsNaN(ub) || math.IsInf(lb, 0) || lb > ub {
		return Var{}, fmt.Errorf("variable %q bounds [%v, %v]: %w", name, lb, ub, ErrInvalidBound)
	}
	ind := VarIndex(len(m.vars))
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub, integer: integer})
	m.varNames[name] = ind
	return Var{ind: ind, m: m}, nil
}

// NewIntVar creates a new integer variable with domain `[lb, ub]`.
func (m *Model) NewIntVar(lb, ub int64, name string) (Var, error) {
	return m.NewVar(float64(lb), float64(ub), true, name)
}

// LookupVar returns the variable with the given name.
func (m *Model) LookupVar(name string) (Var, bool) {
	ind, ok := m.varNames[name]
	if !ok {
		return Var{}, false
	}
	return Var{ind: ind, m: m}, true
}

// Var returns the variable at index `i`.
func (m *Model) Var(i VarIndex) Var {
	return Var{ind: i, m: m}
}

// Vars returns all variables in index order.
func (m *Model) Vars() []Var {
	out := make([]Var, len(m.vars))
	for i := range m.vars {
		out[i] = Var{ind: VarIndex(i), m: m}
	}
	return out
}

// AddLessOrEqual adds the named linear constraint `expr <= rhs`. The constant
// offset of `expr` is moved to the right-hand side.
func (m *Model) AddLessOrEqual(expr *LinearExpr, rhs float64, name string) (Constraint, error) {
	if name == "" {
		name = fmt.Sprintf("c%d", len(m.constraints))
	}
	if _, ok := m.consNames[name]; ok {
		return Constraint{}, fmt.Errorf("constraint %q: %w", name, ErrDuplicateName)
	}
	if !validRHS(rhs) {
		return Constraint{}, fmt.Errorf("constraint %q rhs %v: %w", name, rhs, ErrInvalidBound)
	}
	if expr.m != nil && !m.checkSameModelAndSetErrorf(expr.m, "expression added to constraint %q", name) {
		return Constraint{}, m.err
	}
	ind := ConstrIndex(len(m.constraints))
	m.constraints = append(m.constraints, constraint{
		name:  name,
		terms: expr.merged(),
		ub:    rhs - expr.offset,
	})
	m.consNames[name] = ind
	return Constraint{ind: ind, m: m}, nil
}

// LookupConstraint returns the constraint with the given name.
func (m *Model) LookupConstraint(name string) (Constraint, bool) {
	ind, ok := m.consNames[name]
	if !ok {
		return Constraint{}, false
	}
	return Constraint{ind: ind, m: m}, true
}

// Constraints returns all constraints in index order.
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.constraints))
	for i := range m.constraints {
		out[i] = Constraint{ind: ConstrIndex(i), m: m}
	}
	return out
}

// SetConstraintBound overwrites the right-hand side of the named constraint.
// The left-hand side and all variable bounds are left untouched.
func (m *Model) SetConstraintBound(name string, rhs float64) error {
	c, ok := m.LookupConstraint(name)
	if !ok {
		return fmt.Errorf("constraint %q: %w", name, ErrNotFound)
	}
	return c.SetBound(rhs)
}

// Maximize sets a linear maximization objective, replacing any previous one.
func (m *Model) Maximize(obj *LinearExpr) {
	m.setObjective(obj, true)
}

// Minimize sets a linear minimization objective, replacing any previous one.
func (m *Model) Minimize(obj *LinearExpr) {
	m.setObjective(obj, false)
}

func (m *Model) setObjective(obj *LinearExpr, maximize bool) {
	if obj.m != nil && !m.checkSameModelAndSetErrorf(obj.m, "expression used as objective") {
		return
	}
	m.objective = Objective{
		Terms:    obj.merged(),
		Offset:   obj.offset,
		Maximize: maximize,
	}
}

// Objective returns a copy of the model's objective.
func (m *Model) Objective() Objective {
	o := m.objective
	o.Terms = append([]Term(nil), o.Terms...)
	return o
}

// Validate returns the first error recorded while building the model, or an
// error describing a structural problem with it.
func (m *Model) Validate() error {
	if m.err != nil {
		return m.err
	}
	for _, t := range m.objective.Terms {
		if math.IsNaN(t.Coeff) || math.IsInf(t.Coeff, 0) {
			return fmt.Errorf("objective coefficient %v on %q is not finite", t.Coeff, m.vars[t.Var].name)
		}
	}
	for _, c := range m.constraints {
		for _, t := range c.terms {
			if math.IsNaN(t.Coeff) || math.IsInf(t.Coeff, 0) {
				return fmt.Errorf("constraint %q coefficient %v on %q is not finite", c.name, t.Coeff, m.vars[t.Var].name)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the model. Handles obtained from `m` must not be
// used with the copy; look them up again by name or index.
func (m *Model) Clone() *Model {
	c := &Model{
		name:      m.name,
		vars:      append([]variable(nil), m.vars...),
		varNames:  make(map[string]VarIndex, len(m.varNames)),
		consNames: make(map[string]ConstrIndex, len(m.consNames)),
		objective: m.Objective(),
		version:   m.version,
		err:       m.err,
	}
	for k, v := range m.varNames {
		c.varNames[k] = v
	}
	for k, v := range m.consNames {
		c.consNames[k] = v
	}
	c.constraints = make([]constraint, len(m.constraints))
	for i, ct := range m.constraints {
		ct.terms = append([]Term(nil), ct.terms...)
		c.constraints[i] = ct
	}
	return c
}

// Var is a reference to a variable in the model.
type Var struct {
	ind VarIndex
	m   *Model
}

// Name returns the name of the variable.
func (v Var) Name() string {
	return v.m.vars[v.ind].name
}

// Index returns the index of the variable.
func (v Var) Index() VarIndex {
	return v.ind
}

// Bounds returns the lower and upper bounds of the variable.
func (v Var) Bounds() (lb, ub float64) {
	vr := v.m.vars[v.ind]
	return vr.lb, vr.ub
}

// Integer reports whether the variable must take an integral value.
func (v Var) Integer() bool {
	return v.m.vars[v.ind].integer
}

// Constraint is a reference to a constraint in the model.
type Constraint struct {
	ind ConstrIndex
	m   *Model
}

// Name returns the name of the constraint.
func (c Constraint) Name() string {
	return c.m.constraints[c.ind].name
}

// Index returns the index of the constraint.
func (c Constraint) Index() ConstrIndex {
	return c.ind
}

// Bound returns the right-hand side of the constraint.
func (c Constraint) Bound() float64 {
	return c.m.constraints[c.ind].ub
}

// Terms returns a copy of the left-hand side terms of the constraint.
func (c Constraint) Terms() []Term {
	return append([]Term(nil), c.m.constraints[c.ind].terms...)
}

// Coefficient returns the coefficient of `v` in the constraint, 0 if absent.
func (c Constraint) Coefficient(v Var) float64 {
	for _, t := range c.m.constraints[c.ind].terms {
		if t.Var == v.ind {
			return t.Coeff
		}
	}
	return 0
}

// validRHS accepts any number or +inf, which leaves the row unconstrained.
func validRHS(rhs float64) bool {
	return !math.IsNaN(rhs) && !math.IsInf(rhs, -1)
}

// SetBound overwrites the right-hand side of the constraint. A +inf
// right-hand side disables the constraint.
func (c Constraint) SetBound(rhs float64) error {
	if !validRHS(rhs) {
		return fmt.Errorf("constraint %q rhs %v: %w", c.Name(), rhs, ErrInvalidBound)
	}
	ct := &c.m.constraints[c.ind]
	log.V(1).Infof("Model %q: constraint %q rhs %v -> %v", c.m.name, ct.name, ct.ub, rhs)
	ct.ub = rhs
	c.m.version++
	return nil
}
