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
	"errors"

	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Status is the verdict of a solve. The set is closed: every outcome of the
// underlying engine maps to one of these values.
type Status int

const (
	// StatusError covers solves that did not reach a verdict: engine failures,
	// interrupted solves and exhausted node limits. It is the zero value.
	StatusError Status = iota
	// StatusOptimal means a provably optimal solution was found.
	StatusOptimal
	// StatusInfeasible means no assignment satisfies the constraints.
	StatusInfeasible
	// StatusUnbounded means the objective can be improved without limit.
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusUnbounded:
		return "UNBOUNDED"
	}
	return "ERROR"
}

// statusFromLP maps an error returned by the simplex engine.
func statusFromLP(err error) Status {
	switch {
	case err == nil:
		return StatusOptimal
	case errors.Is(err, lp.ErrInfeasible):
		return StatusInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return StatusUnbounded
	}
	return StatusError
}
