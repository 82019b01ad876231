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

package mipmodel

import (
	log "github.com/golang/glog"
)

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	m      *Model
	terms  []Term
	offset float64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// Add adds the variable to the LinearExpr and returns itself.
func (l *LinearExpr) Add(v Var) *LinearExpr {
	return l.AddTerm(v, 1)
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c float64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the variable with the given coefficient to the LinearExpr and
// returns itself. Terms on variables of another model are dropped and the
// error is recorded on the first model.
func (l *LinearExpr) AddTerm(v Var, coeff float64) *LinearExpr {
	if v.m == nil {
		log.Fatalf("uninitialized Var added to LinearExpr")
	}
	if l.m == nil {
		l.m = v.m
	}
	if !l.m.checkSameModelAndSetErrorf(v.m, "invalid variable %v added to LinearExpr", v.Index()) {
		return l
	}
	l.terms = append(l.terms, Term{Var: v.ind, Coeff: coeff})
	return l
}

// AddWeightedSum adds the variables with the corresponding coefficients to the
// LinearExpr and returns itself.
func (l *LinearExpr) AddWeightedSum(vars []Var, coeffs []float64) *LinearExpr {
	if len(coeffs) != len(vars) {
		log.Fatalf("vars and coeffs must be the same length: %v != %v", len(vars), len(coeffs))
	}
	for i, v := range vars {
		l.AddTerm(v, coeffs[i])
	}
	return l
}

// Offset returns the constant part of the expression.
func (l *LinearExpr) Offset() float64 {
	return l.offset
}

// Terms returns the terms with repeated variables merged, in order of first
// appearance. Zero coefficients are kept.
func (l *LinearExpr) Terms() []Term {
	return l.merged()
}

func (l *LinearExpr) merged() []Term {
	pos := make(map[VarIndex]int, len(l.terms))
	var out []Term
	for _, t := range l.terms {
		if i, ok := pos[t.Var]; ok {
			out[i].Coeff += t.Coeff
			continue
		}
		pos[t.Var] = len(out)
		out = append(out, t)
	}
	return out
}

// Evaluate returns the value of terms with `values` indexed by VarIndex.
func Evaluate(terms []Term, values []float64) float64 {
	var s float64
	for _, t := range terms {
		s += t.Coeff * values[t.Var]
	}
	return s
}
