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

// [START program]
// The juice_mix command solves a three-juice product mix, then re-solves it
// with 20 more hours of machine time.
package main

import (
	"context"
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/google/or-tools/productmix/mipsolver"
	"github.com/google/or-tools/productmix/productmix"
)

func printResult(r *productmix.Result, cat productmix.Catalog) {
	switch r.Status {
	case mipsolver.StatusOptimal:
		for _, p := range cat {
			fmt.Printf("%s = %v\n", p.Name, math.Round(r.Solution.Quantities[p.Name]))
		}
		fmt.Printf("Total profit = %v\n", math.Round(r.Solution.Objective))
	default:
		fmt.Println("No solution found.")
	}
}

func juiceMix() error {
	// [START data]
	cat := productmix.Catalog{
		{Name: "Apple Juice", Profit: 25, MachineTime: 3, LaborTime: 2, MaxUnits: 60},
		{Name: "Orange Juice", Profit: 30, MachineTime: 2, LaborTime: 3, MaxUnits: 60},
		{Name: "Mixed Fruit Juice", Profit: 40, MachineTime: 4, LaborTime: 4, MaxUnits: 60},
	}
	// [END data]

	// [START model]
	plan, err := productmix.Build(cat, 240, 220)
	if err != nil {
		return fmt.Errorf("failed to build the model: %w", err)
	}
	// [END model]

	// [START solve]
	solver := mipsolver.Solver{}
	res, err := plan.Solve(context.Background(), solver)
	if err != nil {
		return fmt.Errorf("failed to solve the model: %w", err)
	}
	printResult(res, cat)
	// [END solve]

	// [START resolve]
	res2, err := plan.Resolve(context.Background(), solver, productmix.MachineTime, 260)
	if err != nil {
		return fmt.Errorf("failed to re-solve the model: %w", err)
	}
	fmt.Println("With 260 hours of machine time:")
	printResult(res2, cat)
	// [END resolve]

	return nil
}

func main() {
	if err := juiceMix(); err != nil {
		log.Exitf("juiceMix returned with error: %v", err)
	}
}

// [END program]
