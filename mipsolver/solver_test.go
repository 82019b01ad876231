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
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"

	"github.com/google/or-tools/productmix/mipmodel"
)

const tolerance = 1e-6

func approxEq(x, y float64) bool {
	return math.Abs(x-y) < tolerance
}

func juiceModel(t *testing.T, machine float64) (*mipmodel.Model, []mipmodel.Var) {
	t.Helper()
	m := mipmodel.New("juice")
	var vars []mipmodel.Var
	for _, name := range []string{"apple", "orange", "mixed"} {
		v, err := m.NewIntVar(0, 60, name)
		if err != nil {
			t.Fatalf("NewIntVar(%s) err = %v, want nil", name, err)
		}
		vars = append(vars, v)
	}
	m.Maximize(mipmodel.NewLinearExpr().AddWeightedSum(vars, []float64{25, 30, 40}))
	if _, err := m.AddLessOrEqual(mipmodel.NewLinearExpr().AddWeightedSum(vars, []float64{3, 2, 4}), machine, "machine"); err != nil {
		t.Fatalf("AddLessOrEqual(machine) err = %v, want nil", err)
	}
	if _, err := m.AddLessOrEqual(mipmodel.NewLinearExpr().AddWeightedSum(vars, []float64{2, 3, 4}), 220, "labor"); err != nil {
		t.Fatalf("AddLessOrEqual(labor) err = %v, want nil", err)
	}
	return m, vars
}

func TestSolve_Juice(t *testing.T) {
	m, vars := juiceModel(t, 240)

	res, err := Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() returned with unexpected err: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("Solve() returned status = %v, want %v", res.Status, StatusOptimal)
	}
	if !approxEq(res.ObjectiveValue, 2480) {
		t.Errorf("Solve() returned objective = %v, want 2480", res.ObjectiveValue)
	}
	want := []float64{56, 36, 0}
	got := []float64{Value(res, vars[0]), Value(res, vars[1]), Value(res, vars[2])}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, tolerance)); diff != "" {
		t.Errorf("Value() returned with unexpected diff (-want+got):\n%s", diff)
	}
	if res.Nodes < 1 {
		t.Errorf("Nodes = %v, want >= 1", res.Nodes)
	}
}

func TestSolve_JuiceMoreMachineTime(t *testing.T) {
	m, vars := juiceModel(t, 260)

	res, err := Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() returned with unexpected err: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("Solve() returned status = %v, want %v", res.Status, StatusOptimal)
	}
	if !approxEq(res.ObjectiveValue, 2500) {
		t.Errorf("Solve() returned objective = %v, want 2500", res.ObjectiveValue)
	}
	// 2500 has several optimal assignments; check integrality and feasibility.
	var machine, labor float64
	for i, v := range vars {
		x := Value(res, v)
		if !approxEq(x, math.Round(x)) {
			t.Errorf("Value(%s) = %v, want an integer", v.Name(), x)
		}
		machine += []float64{3, 2, 4}[i] * x
		labor += []float64{2, 3, 4}[i] * x
	}
	if machine > 260+tolerance || labor > 220+tolerance {
		t.Errorf("solution uses machine = %v, labor = %v, want <= (260, 220)", machine, labor)
	}
}

func TestSolve_Continuous(t *testing.T) {
	m := mipmodel.New("lp")
	x, _ := m.NewVar(0, math.Inf(1), false, "x")
	y, _ := m.NewVar(0, math.Inf(1), false, "y")
	m.Maximize(mipmodel.NewLinearExpr().Add(x).Add(y))
	m.AddLessOrEqual(mipmodel.NewLinearExpr().Add(x).AddTerm(y, 2), 4, "c1")
	m.AddLessOrEqual(mipmodel.NewLinearExpr().AddTerm(x, 3).Add(y), 9, "c2")

	res, err := Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() returned with unexpected err: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("Solve() returned status = %v, want %v", res.Status, StatusOptimal)
	}
	if !approxEq(res.ObjectiveValue, 3.4) {
		t.Errorf("Solve() returned objective = %v, want 3.4", res.ObjectiveValue)
	}
	if gotX, gotY := Value(res, x), Value(res, y); !approxEq(gotX, 2.8) || !approxEq(gotY, 0.6) {
		t.Errorf("Value() returned (x, y) = (%v, %v), want (2.8, 0.6)", gotX, gotY)
	}
	if res.Nodes != 1 {
		t.Errorf("Nodes = %v, want 1 for a continuous model", res.Nodes)
	}
}

func TestSolve_Minimize(t *testing.T) {
	m := mipmodel.New("min")
	x, _ := m.NewIntVar(0, 10, "x")
	m.Minimize(mipmodel.NewLinearExpr().Add(x).AddConstant(1))
	m.AddLessOrEqual(mipmodel.NewLinearExpr().AddTerm(x, -1), -2.5, "atLeast")

	res, err := Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() returned with unexpected err: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("Solve() returned status = %v, want %v", res.Status, StatusOptimal)
	}
	if got := Value(res, x); !approxEq(got, 3) {
		t.Errorf("Value(x) = %v, want 3", got)
	}
	if !approxEq(res.ObjectiveValue, 4) {
		t.Errorf("Solve() returned objective = %v, want 4", res.ObjectiveValue)
	}
}

func TestSolve_Statuses(t *testing.T) {
	testCases := []struct {
		name  string
		model func() *mipmodel.Model
		want  Status
	}{
		{
			name: "LinearInfeasible",
			model: func() *mipmodel.Model {
				m := mipmodel.New("infeasible")
				x, _ := m.NewIntVar(0, 10, "x")
				m.Maximize(mipmodel.NewLinearExpr().Add(x))
				m.AddLessOrEqual(mipmodel.NewLinearExpr().AddTerm(x, -1), -11, "atLeast11")
				return m
			},
			want: StatusInfeasible,
		},
		{
			name: "IntegerBoundsInfeasible",
			model: func() *mipmodel.Model {
				m := mipmodel.New("infeasible")
				x, _ := m.NewVar(0.2, 0.8, true, "x")
				m.Maximize(mipmodel.NewLinearExpr().Add(x))
				return m
			},
			want: StatusInfeasible,
		},
		{
			name: "FreeVariableUnbounded",
			model: func() *mipmodel.Model {
				m := mipmodel.New("unbounded")
				y, _ := m.NewVar(0, math.Inf(1), false, "y")
				m.Maximize(mipmodel.NewLinearExpr().Add(y))
				return m
			},
			want: StatusUnbounded,
		},
		{
			name: "LinearUnbounded",
			model: func() *mipmodel.Model {
				m := mipmodel.New("unbounded")
				x, _ := m.NewVar(0, math.Inf(1), true, "x")
				y, _ := m.NewVar(0, math.Inf(1), true, "y")
				m.Maximize(mipmodel.NewLinearExpr().Add(x))
				m.AddLessOrEqual(mipmodel.NewLinearExpr().Add(x).AddTerm(y, -1), 1, "c")
				return m
			},
			want: StatusUnbounded,
		},
		{
			name: "InfiniteRHSDisablesRow",
			model: func() *mipmodel.Model {
				m := mipmodel.New("open")
				x, _ := m.NewIntVar(0, 5, "x")
				m.Maximize(mipmodel.NewLinearExpr().Add(x))
				c, _ := m.AddLessOrEqual(mipmodel.NewLinearExpr().AddTerm(x, 2), 3, "c")
				c.SetBound(math.Inf(1))
				return m
			},
			want: StatusOptimal,
		},
		{
			name: "InfiniteRHSUnbounded",
			model: func() *mipmodel.Model {
				m := mipmodel.New("open")
				x, _ := m.NewVar(0, math.Inf(1), true, "x")
				m.Maximize(mipmodel.NewLinearExpr().Add(x))
				m.AddLessOrEqual(mipmodel.NewLinearExpr().Add(x), math.Inf(1), "c")
				return m
			},
			want: StatusUnbounded,
		},
		{
			name: "AllCapsZero",
			model: func() *mipmodel.Model {
				m := mipmodel.New("zero")
				x, _ := m.NewIntVar(0, 0, "x")
				y, _ := m.NewIntVar(0, 0, "y")
				m.Maximize(mipmodel.NewLinearExpr().AddTerm(x, 5).AddTerm(y, 7))
				m.AddLessOrEqual(mipmodel.NewLinearExpr().Add(x).Add(y), 10, "c")
				return m
			},
			want: StatusOptimal,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			res, err := Solve(context.Background(), test.model())
			if err != nil {
				t.Fatalf("Solve() returned with unexpected err: %v", err)
			}
			if res.Status != test.want {
				t.Errorf("Solve() returned status = %v (%s), want %v", res.Status, res.Message, test.want)
			}
			if test.want != StatusOptimal && res.Values != nil {
				t.Errorf("Solve() returned values %v with status %v, want nil", res.Values, res.Status)
			}
		})
	}
}

func fractionalModel() (*mipmodel.Model, mipmodel.Var) {
	m := mipmodel.New("fractional")
	x, _ := m.NewIntVar(0, 10, "x")
	m.Maximize(mipmodel.NewLinearExpr().Add(x))
	m.AddLessOrEqual(mipmodel.NewLinearExpr().AddTerm(x, 2), 3, "c")
	return m, x
}

func TestSolve_Branching(t *testing.T) {
	m, x := fractionalModel()
	res, err := Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() returned with unexpected err: %v", err)
	}
	if res.Status != StatusOptimal {
		t.Fatalf("Solve() returned status = %v, want %v", res.Status, StatusOptimal)
	}
	if got := Value(res, x); !approxEq(got, 1) {
		t.Errorf("Value(x) = %v, want 1", got)
	}
	if res.Nodes < 2 {
		t.Errorf("Nodes = %v, want >= 2", res.Nodes)
	}
}

func TestSolve_NodeLimit(t *testing.T) {
	m, _ := fractionalModel()
	res, err := SolveWithParameters(context.Background(), m, Parameters{MaxNodes: 1})
	if err != nil {
		t.Fatalf("SolveWithParameters() returned with unexpected err: %v", err)
	}
	if res.Status != StatusError {
		t.Errorf("SolveWithParameters() returned status = %v, want %v", res.Status, StatusError)
	}
	if res.Message == "" {
		t.Error("SolveWithParameters() returned an empty message, want node limit explanation")
	}
}

func TestSolve_Interrupted(t *testing.T) {
	m, _ := juiceModel(t, 240)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Solver{}.Solve(ctx, m)
	if err != nil {
		t.Fatalf("Solve() returned with unexpected err: %v", err)
	}
	if res.Status != StatusError {
		t.Errorf("Solve() returned status = %v, want %v", res.Status, StatusError)
	}
	if res.Values != nil {
		t.Errorf("Solve() returned values %v, want nil", res.Values)
	}
}

// expiredContext has a passed deadline but has not been cancelled yet.
type expiredContext struct {
	context.Context
}

func (expiredContext) Deadline() (time.Time, bool) {
	return time.Now().Add(-time.Second), true
}

func TestSolve_DeadlinePassed(t *testing.T) {
	m, _ := juiceModel(t, 240)
	res, err := Solver{}.Solve(expiredContext{context.Background()}, m)
	if err != nil {
		t.Fatalf("Solve() returned with unexpected err: %v", err)
	}
	if res.Status != StatusError {
		t.Errorf("Solve() returned status = %v, want %v", res.Status, StatusError)
	}
	if !strings.Contains(res.Message, context.DeadlineExceeded.Error()) {
		t.Errorf("Solve() returned message = %q, want it to mention %q", res.Message, context.DeadlineExceeded)
	}
}

func TestSolve_InvalidModel(t *testing.T) {
	if _, err := Solve(context.Background(), nil); err == nil {
		t.Error("Solve(nil) err = nil, want error")
	}
	m := mipmodel.New("bad")
	x, _ := m.NewIntVar(0, 1, "x")
	m.Maximize(mipmodel.NewLinearExpr().AddTerm(x, math.NaN()))
	if _, err := Solve(context.Background(), m); err == nil {
		t.Error("Solve() err = nil, want invalid model error")
	}
}

func TestSolve_ModelVersion(t *testing.T) {
	m, _ := juiceModel(t, 240)
	if err := m.SetConstraintBound("machine", 260); err != nil {
		t.Fatalf("SetConstraintBound() err = %v, want nil", err)
	}
	res, err := Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() returned with unexpected err: %v", err)
	}
	if res.ModelVersion != 1 {
		t.Errorf("ModelVersion = %v, want 1", res.ModelVersion)
	}
	if diff := cmp.Diff([]float64{260, 220}, res.Bounds); diff != "" {
		t.Errorf("Bounds returned with unexpected diff (-want+got):\n%s", diff)
	}
	if err := m.SetConstraintBound("machine", 100); err != nil {
		t.Fatalf("SetConstraintBound() err = %v, want nil", err)
	}
	if res.Bounds[0] != 260 {
		t.Errorf("Bounds[0] = %v after a later mutation, want 260", res.Bounds[0])
	}
}

func TestStatus_String(t *testing.T) {
	testCases := []struct {
		status Status
		want   string
	}{
		{StatusOptimal, "OPTIMAL"},
		{StatusInfeasible, "INFEASIBLE"},
		{StatusUnbounded, "UNBOUNDED"},
		{StatusError, "ERROR"},
		{Status(42), "ERROR"},
	}
	for _, test := range testCases {
		if got := test.status.String(); got != test.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(test.status), got, test.want)
		}
	}
}

func TestSimplex_EnginePanic(t *testing.T) {
	// A right-hand side of the wrong length makes gonum panic.
	y, err := simplex([]float64{1, 1}, mat.NewDense(1, 2, []float64{1, 1}), []float64{1, 2})
	if err == nil {
		t.Fatalf("simplex() = %v, want error", y)
	}
	if st := statusFromLP(err); st != StatusError {
		t.Errorf("statusFromLP(%v) = %v, want %v", err, st, StatusError)
	}
}

func TestSolve_TiesAreDeterministic(t *testing.T) {
	// Several assignments reach 2500 at this machine budget.
	m, _ := juiceModel(t, 260)
	first, err := Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() returned with unexpected err: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := Solve(context.Background(), m)
		if err != nil {
			t.Fatalf("Solve() returned with unexpected err: %v", err)
		}
		if diff := cmp.Diff(first.Values, again.Values); diff != "" {
			t.Errorf("Solve() returned values with unexpected diff (-want+got):\n%s", diff)
		}
	}
}
