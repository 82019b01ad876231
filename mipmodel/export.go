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
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

func formatNum(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (m *Model) writeTerms(sb *strings.Builder, terms []Term) {
	if len(terms) == 0 {
		sb.WriteString(" 0")
		return
	}
	for i, t := range terms {
		c := t.Coeff
		switch {
		case c < 0:
			sb.WriteString(" -")
			c = -c
		case i > 0:
			sb.WriteString(" +")
		}
		fmt.Fprintf(sb, " %s %s", formatNum(c), m.vars[t.Var].name)
	}
}

// ExportLP outputs the model as a string in CPLEX LP format.
//
// Usage:
//
//	modelStr, err := ExportLP(model)
func ExportLP(m *Model) (string, error) {
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("cannot export an invalid model as LP format: %w", err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\\ Model: %s\n", m.name)
	if m.objective.Maximize {
		sb.WriteString("Maximize\n")
	} else {
		sb.WriteString("Minimize\n")
	}
	sb.WriteString(" obj:")
	m.writeTerms(&sb, m.objective.Terms)
	if off := m.objective.Offset; off != 0 {
		if off < 0 {
			fmt.Fprintf(&sb, " - %s", formatNum(-off))
		} else {
			fmt.Fprintf(&sb, " + %s", formatNum(off))
		}
	}
	sb.WriteString("\nSubject To\n")
	for _, c := range m.constraints {
		fmt.Fprintf(&sb, " %s:", c.name)
		m.writeTerms(&sb, c.terms)
		fmt.Fprintf(&sb, " <= %s\n", formatNum(c.ub))
	}
	sb.WriteString("Bounds\n")
	var generals []string
	for _, v := range m.vars {
		fmt.Fprintf(&sb, " %s <= %s <= %s\n", formatNum(v.lb), v.name, formatNum(v.ub))
		if v.integer {
			generals = append(generals, v.name)
		}
	}
	if len(generals) > 0 {
		sb.WriteString("Generals\n")
		fmt.Fprintf(&sb, " %s\n", strings.Join(generals, " "))
	}
	sb.WriteString("End\n")
	return sb.String(), nil
}

func (m *Model) termsValue(terms []Term) []any {
	out := make([]any, 0, len(terms))
	for _, t := range terms {
		out = append(out, map[string]any{
			"var":   m.vars[t.Var].name,
			"coeff": t.Coeff,
		})
	}
	return out
}

// Proto returns the model as a structpb.Struct. Infinite bounds are
// omitted since they have no JSON representation.
func Proto(m *Model) (*structpb.Struct, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	vars := make([]any, 0, len(m.vars))
	for _, v := range m.vars {
		vm := map[string]any{
			"name":    v.name,
			"lb":      v.lb,
			"integer": v.integer,
		}
		if !math.IsInf(v.ub, 1) {
			vm["ub"] = v.ub
		}
		vars = append(vars, vm)
	}
	cons := make([]any, 0, len(m.constraints))
	for _, c := range m.constraints {
		cm := map[string]any{
			"name":  c.name,
			"terms": m.termsValue(c.terms),
		}
		if !math.IsInf(c.ub, 0) {
			cm["ub"] = c.ub
		}
		cons = append(cons, cm)
	}
	return structpb.NewStruct(map[string]any{
		"name":    m.name,
		"version": float64(m.version),
		"objective": map[string]any{
			"maximize": m.objective.Maximize,
			"offset":   m.objective.Offset,
			"terms":    m.termsValue(m.objective.Terms),
		},
		"variables":   vars,
		"constraints": cons,
	})
}
