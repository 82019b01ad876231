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

// Package catalog reads product tables.
//
// A table has a header row naming the columns, in any order:
//
//	Product,Profit,MachineTime,LaborTime,MaxUnits[,Fractional]
//
// Header names are matched case-insensitively and surrounding spaces are ignored.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/or-tools/productmix/productmix"
)

var required = []string{"product", "profit", "machinetime", "labortime", "maxunits"}

// ReadCSV reads a catalog from `r`.
func ReadCSV(r io.Reader) (productmix.Catalog, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("catalog has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("catalog header %q lacks column %q", header, col)
		}
	}

	var out productmix.Catalog
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p, err := parseRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// ReadCSVFile reads a catalog from the named file.
func ReadCSVFile(path string) (productmix.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func parseRecord(rec []string, idx map[string]int) (productmix.Product, error) {
	field := func(col string) string {
		return strings.TrimSpace(rec[idx[col]])
	}
	num := func(col string) (float64, error) {
		f, err := strconv.ParseFloat(field(col), 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return f, nil
	}

	p := productmix.Product{Name: field("product")}
	var err error
	if p.Profit, err = num("profit"); err != nil {
		return p, err
	}
	if p.MachineTime, err = num("machinetime"); err != nil {
		return p, err
	}
	if p.LaborTime, err = num("labortime"); err != nil {
		return p, err
	}
	if p.MaxUnits, err = strconv.ParseInt(field("maxunits"), 10, 64); err != nil {
		return p, fmt.Errorf("column maxunits: %w", err)
	}
	if i, ok := idx["fractional"]; ok && strings.TrimSpace(rec[i]) != "" {
		if p.Fractional, err = strconv.ParseBool(strings.TrimSpace(rec[i])); err != nil {
			return p, fmt.Errorf("column fractional: %w", err)
		}
	}
	return p, nil
}
