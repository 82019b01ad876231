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

// Package mipsolver solves mipmodel models with a depth-first branch-and-bound
// over LP relaxations. The relaxations are solved with gonum's simplex.
//
// Solves are synchronous and deterministic for a fixed model and parameters.
// A solve can be interrupted through its context, in which case the response
// status is StatusError.
//
// When several assignments reach the optimal objective, the one returned is the
// first found by the search: it branches on the most fractional integer
// variable (lowest index on ties) and explores the child nearest to the
// relaxation value first. A later assignment is kept only if it is strictly
// better, so equally good alternatives are never reported.
package mipsolver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/golang/glog"

	"github.com/google/or-tools/productmix/mipmodel"
)

const (
	// DefaultMaxNodes is the node limit used when Parameters.MaxNodes is 0.
	DefaultMaxNodes = 100000
	// DefaultIntegralityTolerance is used when Parameters.IntegralityTolerance is 0.
	DefaultIntegralityTolerance = 1e-6
)

// Parameters tunes a solve.
type Parameters struct {
	// MaxNodes bounds the number of branch-and-bound nodes. Reaching it without
	// proving optimality yields StatusError.
	MaxNodes int
	// IntegralityTolerance is the distance to the nearest integer under which an
	// integer variable is considered integral.
	IntegralityTolerance float64
}

func (p Parameters) withDefaults() Parameters {
	if p.MaxNodes <= 0 {
		p.MaxNodes = DefaultMaxNodes
	}
	if p.IntegralityTolerance <= 0 {
		p.IntegralityTolerance = DefaultIntegralityTolerance
	}
	return p
}

// Response is the outcome of a solve.
type Response struct {
	Status Status
	// ObjectiveValue includes the objective offset. Only set when Status is
	// StatusOptimal.
	ObjectiveValue float64
	// Values holds one value per variable, indexed by mipmodel.VarIndex. Integer
	// variables are reported as computed by the relaxation and may differ from
	// an integer by up to the integrality tolerance. Nil unless Status is
	// StatusOptimal.
	Values []float64
	// ModelVersion is the version of the model that was solved.
	ModelVersion uint64
	// Bounds holds the right-hand side of every constraint at solve time,
	// indexed by mipmodel.ConstrIndex.
	Bounds []float64
	Nodes        int
	WallTime     time.Duration
	// Message explains a StatusError.
	Message string
}

// Value returns the value of `v` in the response, 0 if the response holds no
// solution.
func Value(r *Response, v mipmodel.Var) float64 {
	if r == nil || int(v.Index()) >= len(r.Values) {
		return 0
	}
	return r.Values[v.Index()]
}

// Solver is a reusable Solve with fixed parameters.
type Solver struct {
	Params Parameters
}

// Solve solves `m` with the solver's parameters.
func (s Solver) Solve(ctx context.Context, m *mipmodel.Model) (*Response, error) {
	return SolveWithParameters(ctx, m, s.Params)
}

// Solve solves `m` with default parameters.
func Solve(ctx context.Context, m *mipmodel.Model) (*Response, error) {
	return SolveWithParameters(ctx, m, Parameters{})
}

type node struct {
	lb, ub []float64
}

// SolveWithParameters solves `m` and returns a response. An error is returned
// only when the model itself is invalid; every solve outcome, including an
// interrupted solve, is reported through Response.Status.
func SolveWithParameters(ctx context.Context, m *mipmodel.Model, params Parameters) (*Response, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model %q: %w", m.Name(), err)
	}
	params = params.withDefaults()
	start := time.Now()
	p := newProblem(m, params.IntegralityTolerance)

	res := &Response{ModelVersion: m.Version(), Bounds: make([]float64, m.NumConstraints())}
	for _, c := range m.Constraints() {
		res.Bounds[c.Index()] = c.Bound()
	}
	finish := func(st Status, msg string) *Response {
		res.Status = st
		res.Message = msg
		res.WallTime = time.Since(start)
		log.V(1).Infof("Model %q v%d: %v after %d nodes in %v", m.Name(), res.ModelVersion, st, res.Nodes, res.WallTime)
		return res
	}

	var best []float64
	bestVal := math.Inf(-1)
	stack := []node{{lb: p.lb, ub: p.ub}}
	for len(stack) > 0 {
		if err := interrupted(ctx); err != nil {
			return finish(StatusError, fmt.Sprintf("solve interrupted: %v", err)), nil
		}
		if res.Nodes >= params.MaxNodes {
			return finish(StatusError, fmt.Sprintf("node limit %d reached", params.MaxNodes)), nil
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		res.Nodes++

		x, val, st, err := p.relax(nd.lb, nd.ub)
		switch st {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			return finish(StatusUnbounded, ""), nil
		case StatusError:
			return finish(StatusError, err.Error()), nil
		}
		if best != nil && val <= bestVal+1e-9*math.Max(1, math.Abs(bestVal)) {
			continue
		}

		j := p.branchingVar(x, params.IntegralityTolerance)
		if j < 0 {
			log.V(2).Infof("Model %q: incumbent %v at node %d", m.Name(), val, res.Nodes)
			best, bestVal = x, val
			continue
		}

		down := node{lb: nd.lb, ub: append([]float64(nil), nd.ub...)}
		down.ub[j] = math.Floor(x[j])
		up := node{lb: append([]float64(nil), nd.lb...), ub: nd.ub}
		up.lb[j] = math.Ceil(x[j])
		// The child on the side of the nearest integer is explored first.
		if x[j]-math.Floor(x[j]) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	if best == nil {
		return finish(StatusInfeasible, ""), nil
	}
	res.Values = best
	res.ObjectiveValue = p.sense*p.value(best) + m.Objective().Offset
	return finish(StatusOptimal, ""), nil
}

// interrupted reports why ctx stops the search. A passed deadline counts even
// before the context's timer has fired.
func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return context.DeadlineExceeded
	}
	return nil
}

// branchingVar returns the integer variable whose value is the farthest from an
// integer, or -1 if all integer variables are integral. Ties go to the lowest
// index.
func (p *problem) branchingVar(x []float64, tol float64) int {
	j := -1
	worst := tol
	for i, v := range x {
		if !p.integer[i] {
			continue
		}
		frac := math.Abs(v - math.Round(v))
		if frac > worst {
			j, worst = i, frac
		}
	}
	return j
}
