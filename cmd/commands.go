// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package cmd contains the CLI commands of the stratlog binary.
package cmd

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stratlog/stratlog/logging"
)

// RootCommand is the base CLI command that all subcommands are added to.
var RootCommand = &cobra.Command{
	Use:   path.Base(os.Args[0]),
	Short: "Stratlog Datalog-to-RAM translator",
	Long:  "Translate stratified Datalog programs into relational algebra machine programs.",
}

var (
	configFile string
	logLevel   string
	logFormat  string
)

func init() {
	RootCommand.PersistentFlags().StringVar(&configFile, "config", "", "set path of configuration file")
	RootCommand.PersistentFlags().StringVar(&logLevel, "log-level", "info", "set log level {debug, info, warn, error}")
	RootCommand.PersistentFlags().StringVar(&logFormat, "log-format", "json", "set log format {text, json}")
	RootCommand.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return setupConfig(cmd)
	}
}

// setupConfig merges the configuration file (if any) into flag defaults.
// Explicitly set flags always win over file values.
func setupConfig(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("STRATLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var bindErr error
	apply := func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			bindErr = err
			return
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := f.Value.Set(fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				bindErr = fmt.Errorf("apply config value for --%v: %w", f.Name, err)
			}
		}
	}
	cmd.Flags().VisitAll(apply)
	cmd.InheritedFlags().VisitAll(apply)
	return bindErr
}

func newLogger() (logging.Logger, error) {
	logger := logging.New()
	switch logFormat {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{})
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format: %v", logFormat)
	}
	switch strings.ToLower(logLevel) {
	case "debug":
		logger.SetLevel(logging.Debug)
	case "", "info":
		logger.SetLevel(logging.Info)
	case "warn":
		logger.SetLevel(logging.Warn)
	case "error":
		logger.SetLevel(logging.Error)
	default:
		return nil, fmt.Errorf("invalid log level: %v", logLevel)
	}
	return logger, nil
}
