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

// The productmix command solves a product-mix configuration and prints the
// baseline plan followed by every configured what-if re-solve.
//
// Quantities are printed rounded to 6 decimals: the solver may report an
// integral quantity as a float within its integrality tolerance (55.9999999).
// The JSON output carries the unrounded values.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	log "github.com/golang/glog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/or-tools/productmix/config"
	"github.com/google/or-tools/productmix/mipmodel"
	"github.com/google/or-tools/productmix/mipsolver"
	"github.com/google/or-tools/productmix/productmix"
)

var (
	configPath = flag.String("config", "", "Path to the run configuration (YAML, TOML or JSON).")
	format     = flag.String("format", "text", "Output format: text, json or lp.")
)

type report struct {
	baseline *productmix.Result
	whatIf   []whatIfResult
}

type whatIfResult struct {
	query  config.WhatIf
	result *productmix.Result
}

// timedSolver enforces the configured time limit on every solve. An expired
// solve is reported as mipsolver.StatusError.
type timedSolver struct {
	solver mipsolver.Solver
	limit  time.Duration
}

func (s timedSolver) Solve(ctx context.Context, m *mipmodel.Model) (*mipsolver.Response, error) {
	if s.limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.limit)
		defer cancel()
	}
	return s.solver.Solve(ctx, m)
}

func solve(ctx context.Context, cfg *config.Config) (*productmix.Plan, *report, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load the catalog: %w", err)
	}
	plan, err := productmix.Build(cat, *cfg.MachineBudget, *cfg.LaborBudget)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build the model: %w", err)
	}
	s := timedSolver{solver: mipsolver.Solver{Params: cfg.Parameters()}, limit: cfg.Solver.TimeLimit}

	rep := &report{}
	if rep.baseline, err = plan.Solve(ctx, s); err != nil {
		return nil, nil, err
	}
	for _, q := range cfg.WhatIf {
		rs, err := plan.WhatIf(ctx, s, q.Constraint, q.Delta)
		if err != nil {
			return nil, nil, fmt.Errorf("what-if %s %+v: %w", q.Constraint, q.Delta, err)
		}
		rep.whatIf = append(rep.whatIf, whatIfResult{query: q, result: rs[0]})
	}
	return plan, rep, nil
}

func formatQty(q float64) string {
	return strconv.FormatFloat(math.Round(q*1e6)/1e6, 'f', -1, 64)
}

func writeResult(w io.Writer, r *productmix.Result, products productmix.Catalog) error {
	fmt.Fprintf(w, "Status: %v\n", r.Status)
	if !r.Optimal() {
		if r.Message != "" {
			fmt.Fprintf(w, "Message: %s\n", r.Message)
		}
		fmt.Fprintln(w, "No solution found.")
		return nil
	}
	fmt.Fprintf(w, "Total profit: %s\n", formatQty(r.Solution.Objective))
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Product\tQuantity\t")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t\n", p.Name, formatQty(r.Solution.Quantities[p.Name]))
	}
	fmt.Fprintln(tw, "Resource\tUsed\tBudget\tSlack\t")
	names := make([]string, 0, len(r.Solution.Usage))
	for n := range r.Solution.Usage {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		u := r.Solution.Usage[n]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", n, formatQty(u.Used), formatQty(u.Budget), formatQty(u.Slack))
	}
	return tw.Flush()
}

func writeText(w io.Writer, plan *productmix.Plan, rep *report) error {
	fmt.Fprintln(w, "== Baseline")
	if err := writeResult(w, rep.baseline, plan.Products()); err != nil {
		return err
	}
	for _, wi := range rep.whatIf {
		fmt.Fprintf(w, "\n== What if %s %+g\n", wi.query.Constraint, wi.query.Delta)
		if err := writeResult(w, wi.result, plan.Products()); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, rep *report) error {
	base, err := rep.baseline.Proto()
	if err != nil {
		return err
	}
	list := &structpb.ListValue{}
	for _, wi := range rep.whatIf {
		r, err := wi.result.Proto()
		if err != nil {
			return err
		}
		r.Fields["constraint"] = structpb.NewStringValue(wi.query.Constraint)
		r.Fields["delta"] = structpb.NewNumberValue(wi.query.Delta)
		list.Values = append(list.Values, structpb.NewStructValue(r))
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"baseline": structpb.NewStructValue(base),
		"what_if":  structpb.NewListValue(list),
	}}
	b, err := protojson.MarshalOptions{Multiline: true}.Marshal(out)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func run(ctx context.Context, cfg *config.Config, w io.Writer, format string) error {
	switch format {
	case "text", "json", "lp":
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if format == "lp" {
		cat, err := cfg.Catalog()
		if err != nil {
			return err
		}
		plan, err := productmix.Build(cat, *cfg.MachineBudget, *cfg.LaborBudget)
		if err != nil {
			return err
		}
		s, err := mipmodel.ExportLP(plan.Model())
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	}
	plan, rep, err := solve(ctx, cfg)
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(w, rep)
	}
	return writeText(w, plan, rep)
}

func main() {
	flag.Parse()
	if *configPath == "" {
		log.Exitf("--config is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Exitf("Failed to load the configuration: %v", err)
	}
	if err := run(context.Background(), cfg, os.Stdout, *format); err != nil {
		log.Exitf("productmix returned with error: %v", err)
	}
}
