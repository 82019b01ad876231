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
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/or-tools/productmix/mipmodel"
	"github.com/google/or-tools/productmix/mipsolver"
)

// Result is the outcome of one solve. A Result is never modified after it is
// returned.
type Result struct {
	Status mipsolver.Status
	// ModelVersion is the model version that was solved.
	ModelVersion uint64
	// Bounds holds the right-hand side of every constraint at solve time.
	Bounds map[string]float64
	// Solution is nil unless Status is mipsolver.StatusOptimal.
	Solution *Solution
	// Message explains a mipsolver.StatusError.
	Message string
}

// Solution holds the solved quantities. Quantities are exactly what the solver
// reported: a quantity may be a float within the integrality tolerance of an
// integer, and rounding is left to presentation code.
type Solution struct {
	Quantities map[string]float64
	Objective  float64
	// Usage holds, per constraint, the resource consumed by the solution.
	Usage map[string]Usage
}

// Usage is the consumption of one budget constraint.
type Usage struct {
	Used   float64
	Budget float64
	Slack  float64
}

// Optimal reports whether the result carries a solution.
func (r *Result) Optimal() bool {
	return r.Solution != nil
}

// Extract maps a solver response back onto the plan's products. Constraint
// bounds are taken from the response, so a response extracted after a later
// mutation still reports the bounds it was solved with. Values are copied
// without rounding or clamping.
func Extract(p *Plan, resp *mipsolver.Response) *Result {
	r := &Result{
		Status:       resp.Status,
		ModelVersion: resp.ModelVersion,
		Bounds:       make(map[string]float64, len(resp.Bounds)),
		Message:      resp.Message,
	}
	for _, c := range p.model.Constraints() {
		if int(c.Index()) < len(resp.Bounds) {
			r.Bounds[c.Name()] = resp.Bounds[c.Index()]
		}
	}
	if resp.Status != mipsolver.StatusOptimal {
		return r
	}

	values := make([]float64, p.model.NumVars())
	sol := &Solution{
		Quantities: make(map[string]float64, len(p.products)),
		Objective:  resp.ObjectiveValue,
		Usage:      make(map[string]Usage, len(r.Bounds)),
	}
	for i, prod := range p.products {
		v := mipsolver.Value(resp, p.vars[i])
		sol.Quantities[prod.Name] = v
		values[p.vars[i].Index()] = v
	}
	for _, c := range p.model.Constraints() {
		budget, ok := r.Bounds[c.Name()]
		if !ok {
			continue
		}
		used := mipmodel.Evaluate(c.Terms(), values)
		sol.Usage[c.Name()] = Usage{Used: used, Budget: budget, Slack: budget - used}
	}
	r.Solution = sol
	return r
}

// Proto returns the result as a structpb.Struct. The "solution" field is
// absent when the result is not optimal.
func (r *Result) Proto() (*structpb.Struct, error) {
	bounds := make(map[string]any, len(r.Bounds))
	for k, v := range r.Bounds {
		bounds[k] = v
	}
	m := map[string]any{
		"status":        r.Status.String(),
		"model_version": float64(r.ModelVersion),
		"bounds":        bounds,
	}
	if r.Message != "" {
		m["message"] = r.Message
	}
	if r.Solution != nil {
		qty := make(map[string]any, len(r.Solution.Quantities))
		for k, v := range r.Solution.Quantities {
			qty[k] = v
		}
		usage := make(map[string]any, len(r.Solution.Usage))
		for k, u := range r.Solution.Usage {
			usage[k] = map[string]any{"used": u.Used, "budget": u.Budget, "slack": u.Slack}
		}
		m["solution"] = map[string]any{
			"objective":  r.Solution.Objective,
			"quantities": qty,
			"usage":      usage,
		}
	}
	return structpb.NewStruct(m)
}
