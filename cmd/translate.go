// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stratlog/stratlog/compile"
	"github.com/stratlog/stratlog/metrics"
	"github.com/stratlog/stratlog/ram"
	"github.com/stratlog/stratlog/ram/encoding"
)

type translateParams struct {
	strategy    string
	format      string
	counterSeed int
	showMetrics bool
}

func init() {

	var params translateParams

	translateCommand := &cobra.Command{
		Use:   "translate <program.json>",
		Short: "Translate a Datalog program into a RAM program",
		Long: `Translate a stratified Datalog program into a RAM program.

The program is read from the given file, or from stdin when the file is
"-". The result is written to stdout as JSON by default; use --format
pretty for a human-readable listing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runTranslate(args[0], params); err != nil {
				printError(os.Stderr, err)
				return err
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	translateCommand.Flags().StringVarP(&params.strategy, "strategy", "s", "seminaive", "set translation strategy {seminaive, provenance}")
	translateCommand.Flags().StringVarP(&params.format, "format", "f", "json", "set output format {json, pretty}")
	translateCommand.Flags().IntVar(&params.counterSeed, "counter-seed", 0, "set first counter identifier")
	translateCommand.Flags().BoolVar(&params.showMetrics, "metrics", false, "report translation timing")
	RootCommand.AddCommand(translateCommand)
}

func runTranslate(path string, params translateParams) error {

	logger, err := newLogger()
	if err != nil {
		return err
	}

	strategy, err := compile.ParseStrategy(params.strategy)
	if err != nil {
		return err
	}

	m := metrics.New()

	m.Timer(metrics.ProgramDecode).Start()
	p, err := loadProgram(path)
	m.Timer(metrics.ProgramDecode).Stop()
	if err != nil {
		return err
	}

	result, err := compile.New().
		WithProgram(p).
		WithStrategy(strategy).
		WithCounterSeed(params.counterSeed).
		WithLogger(logger).
		WithMetrics(m).
		Translate(context.Background())
	if err != nil {
		return err
	}

	switch params.format {
	case "pretty":
		if err := ram.Pretty(os.Stdout, result); err != nil {
			return err
		}
	case "", "json":
		m.Timer(metrics.RAMEncode).Start()
		bs, err := encoding.Marshal(result)
		m.Timer(metrics.RAMEncode).Stop()
		if err != nil {
			return err
		}
		os.Stdout.Write(bs)
		fmt.Println()
	default:
		return fmt.Errorf("invalid output format: %v", params.format)
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
