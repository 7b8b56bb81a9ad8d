// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stratlog/stratlog/ast"
	"github.com/stratlog/stratlog/compile"
	"github.com/stratlog/stratlog/internal/eval"
	"github.com/stratlog/stratlog/metrics"
)

type runParams struct {
	strategy    string
	facts       string
	relations   []string
	showMetrics bool
}

func init() {

	var params runParams

	runCommand := &cobra.Command{
		Use:   "run <program.json>",
		Short: "Translate and evaluate a Datalog program",
		Long: `Translate a stratified Datalog program and evaluate the resulting RAM
program against the facts given with --facts. The final contents of the
intensional relations are printed as tables.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runRun(args[0], params); err != nil {
				printError(os.Stderr, err)
				return err
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	runCommand.Flags().StringVarP(&params.strategy, "strategy", "s", "seminaive", "set translation strategy {seminaive, provenance}")
	runCommand.Flags().StringVar(&params.facts, "facts", "", "set path of extensional facts file")
	runCommand.Flags().StringSliceVarP(&params.relations, "relation", "r", nil, "print only the named relations")
	runCommand.Flags().BoolVar(&params.showMetrics, "metrics", false, "report translation and evaluation timing")
	RootCommand.AddCommand(runCommand)
}

func runRun(path string, params runParams) error {

	logger, err := newLogger()
	if err != nil {
		return err
	}

	strategy, err := compile.ParseStrategy(params.strategy)
	if err != nil {
		return err
	}

	p, err := loadProgram(path)
	if err != nil {
		return err
	}

	symbols := ast.NewSymbolTable()

	var facts map[string][][]int64
	if params.facts != "" {
		facts, err = loadFacts(params.facts, p, symbols)
		if err != nil {
			return err
		}
	}

	m := metrics.New()

	result, err := compile.New().
		WithProgram(p).
		WithSymbolTable(symbols).
		WithStrategy(strategy).
		WithLogger(logger).
		WithMetrics(m).
		Translate(context.Background())
	if err != nil {
		return err
	}

	m.Timer(metrics.RAMEval).Start()
	out, err := eval.Run(result, facts, eval.Options{})
	m.Timer(metrics.RAMEval).Stop()
	if err != nil {
		return err
	}

	selected := map[string]bool{}
	for _, name := range params.relations {
		selected[name] = true
	}

	auxArity := map[string]int{}
	for _, decl := range result.Relations {
		auxArity[decl.Name] = decl.AuxArity
	}

	for _, rel := range sortedRelations(p) {
		if len(selected) > 0 && !selected[rel.Name] {
			continue
		}
		if len(selected) == 0 && rel.EDB {
			continue
		}
		printRelation(rel, out[rel.Name], auxArity[rel.Name], symbols)
	}

	if params.showMetrics {
		bs, err := m.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, string(bs))
	}

	return nil
}

func sortedRelations(p *ast.Program) []*ast.Relation {
	rels := append([]*ast.Relation(nil), p.Relations...)
	sort.Slice(rels, func(i, j int) bool { return rels[i].Name < rels[j].Name })
	return rels
}

func printRelation(rel *ast.Relation, tuples [][]int64, auxArity int, symbols ast.SymbolTable) {

	fmt.Printf("%v (%d tuples)\n", rel.Name, len(tuples))

	table := tablewriter.NewWriter(os.Stdout)
	header := make([]string, 0, rel.Arity()+auxArity)
	for _, attr := range rel.Attributes {
		header = append(header, attr.Name)
	}
	if auxArity == 2 {
		header = append(header, "@rule", "@height")
	}
	table.SetHeader(header)

	sort.Slice(tuples, func(i, j int) bool {
		for k := range tuples[i] {
			if tuples[i][k] != tuples[j][k] {
				return tuples[i][k] < tuples[j][k]
			}
		}
		return false
	})

	for _, tuple := range tuples {
		row := make([]string, len(tuple))
		for i, v := range tuple {
			if i < len(rel.Attributes) && rel.Attributes[i].Type == ast.Symbol {
				if s, ok := symbols.Resolve(int(v)); ok {
					row[i] = s
					continue
				}
			}
			row[i] = strconv.FormatInt(v, 10)
		}
		table.Append(row)
	}
	table.Render()
}
