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

package mipsolver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/google/or-tools/productmix/mipmodel"
)

type row struct {
	terms []mipmodel.Term
	rhs   float64
}

// problem is a read-only copy of a model, normalized to maximization.
type problem struct {
	obj     []float64 // objective coefficients, already multiplied by sense
	sense   float64   // +1 when maximizing, -1 when minimizing
	lb, ub  []float64
	integer []bool
	rows    []row
	// free is true for variables with an infinite upper bound and no
	// constraint coefficient. They are kept out of the simplex tableau.
	free []bool
}

func newProblem(m *mipmodel.Model, tol float64) *problem {
	n := m.NumVars()
	p := &problem{
		obj:     make([]float64, n),
		sense:   1,
		lb:      make([]float64, n),
		ub:      make([]float64, n),
		integer: make([]bool, n),
		free:    make([]bool, n),
	}
	o := m.Objective()
	if !o.Maximize {
		p.sense = -1
	}
	for _, t := range o.Terms {
		p.obj[t.Var] = p.sense * t.Coeff
	}
	for _, v := range m.Vars() {
		i := v.Index()
		lb, ub := v.Bounds()
		if v.Integer() {
			lb = math.Ceil(lb - tol)
			if !math.IsInf(ub, 1) {
				ub = math.Floor(ub + tol)
			}
		}
		p.lb[i], p.ub[i], p.integer[i] = lb, ub, v.Integer()
	}
	used := make([]bool, n)
	for _, c := range m.Constraints() {
		if math.IsInf(c.Bound(), 1) {
			continue
		}
		r := row{rhs: c.Bound()}
		for _, t := range c.Terms() {
			if t.Coeff == 0 {
				continue
			}
			r.terms = append(r.terms, t)
			used[t.Var] = true
		}
		p.rows = append(p.rows, r)
	}
	for i := range p.free {
		p.free[i] = !used[i] && math.IsInf(p.ub[i], 1)
	}
	return p
}

func (p *problem) value(x []float64) float64 {
	var s float64
	for i, c := range p.obj {
		s += c * x[i]
	}
	return s
}

// relax solves the LP relaxation of p with the given bounds and returns the
// primal values and the objective in maximization sense.
//
// The relaxation is rewritten in the standard form expected by lp.Simplex,
//
//	minimize -obj^T y s.t. A y = b, y >= 0
//
// with y = x - lb, one slack per constraint row and one slack per finite upper
// bound. Rows with a negative right-hand side are negated.
func (p *problem) relax(lb, ub []float64) ([]float64, float64, Status, error) {
	n := len(lb)
	x := make([]float64, n)
	copy(x, lb)

	var active []int
	for j := 0; j < n; j++ {
		if lb[j] > ub[j] {
			return nil, 0, StatusInfeasible, nil
		}
		if p.free[j] {
			if p.obj[j] > 0 {
				return nil, 0, StatusUnbounded, nil
			}
			continue
		}
		active = append(active, j)
	}
	col := make(map[int]int, len(active))
	var bounded []int
	for k, j := range active {
		col[j] = k
		if !math.IsInf(ub[j], 1) {
			bounded = append(bounded, j)
		}
	}

	nRows := len(p.rows) + len(bounded)
	if nRows == 0 {
		return x, p.value(x), StatusOptimal, nil
	}
	nCols := len(active) + nRows

	c := make([]float64, nCols)
	for k, j := range active {
		c[k] = -p.obj[j]
	}
	a := mat.NewDense(nRows, nCols, nil)
	b := make([]float64, nRows)
	for i, r := range p.rows {
		rhs := r.rhs
		for _, t := range r.terms {
			rhs -= t.Coeff * lb[t.Var]
		}
		sign := 1.0
		if rhs < 0 {
			sign = -1
		}
		for _, t := range r.terms {
			a.Set(i, col[int(t.Var)], sign*t.Coeff)
		}
		a.Set(i, len(active)+i, sign)
		b[i] = sign * rhs
	}
	for k, j := range bounded {
		i := len(p.rows) + k
		a.Set(i, col[j], 1)
		a.Set(i, len(active)+i, 1)
		b[i] = ub[j] - lb[j]
	}

	y, err := simplex(c, a, b)
	if st := statusFromLP(err); st != StatusOptimal {
		if st == StatusError {
			return nil, 0, st, fmt.Errorf("simplex: %w", err)
		}
		return nil, 0, st, nil
	}
	for k, j := range active {
		x[j] = lb[j] + y[k]
	}
	return x, p.value(x), StatusOptimal, nil
}

// simplex runs lp.Simplex and turns a panic from the engine into an error.
func simplex(c []float64, a mat.Matrix, b []float64) (y []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			y, err = nil, fmt.Errorf("engine panic: %v", r)
		}
	}()
	_, y, err = lp.Simplex(c, a, b, 0, nil)
	return y, err
}
