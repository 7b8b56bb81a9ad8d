// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func init() {

	inspectCommand := &cobra.Command{
		Use:   "inspect <program.json>",
		Short: "Print a summary of a Datalog program",
		Long:  "Print the relations, strata and clause counts of a Datalog program.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runInspect(args[0]); err != nil {
				printError(os.Stderr, err)
				return err
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	RootCommand.AddCommand(inspectCommand)
}

func runInspect(path string) error {

	p, err := loadProgram(path)
	if err != nil {
		return err
	}

	stratumOf := map[string]int{}
	for i, stratum := range p.Strata {
		for _, name := range stratum.Relations {
			stratumOf[name] = i
		}
	}

	clauseCount := map[string]int{}
	for _, c := range p.Clauses {
		clauseCount[c.Head.Relation]++
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Relation", "Arity", "Kind", "Recursive", "Stratum", "Clauses"})

	for _, rel := range sortedRelations(p) {
		kind := "idb"
		if rel.EDB {
			kind = "edb"
		}
		stratum := "-"
		if i, ok := stratumOf[rel.Name]; ok {
			stratum = strconv.Itoa(i)
		}
		table.Append([]string{
			rel.Name,
			strconv.Itoa(rel.Arity()),
			kind,
			strconv.FormatBool(rel.Recursive),
			stratum,
			strconv.Itoa(clauseCount[rel.Name]),
		})
	}
	table.Render()

	fmt.Printf("%d relations, %d clauses, %d strata\n", len(p.Relations), len(p.Clauses), len(p.Strata))
	return nil
}
