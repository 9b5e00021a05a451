// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"typedlua.dev/tlc/internal/build"
	"typedlua.dev/tlc/internal/config"
	"typedlua.dev/tlc/internal/diag"
)

type checkOptions struct {
	configPath string
	entries    []string
}

func newCheckCommand(g *globalConfig) *cobra.Command {
	opts := new(checkOptions)
	c := &cobra.Command{
		Use:                   "check [options] FILE...",
		Short:                 "type-check TypedLua sources without emitting Lua",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.Flags().StringVar(&opts.configPath, "config", "tlconfig.json", "`path` to the compiler configuration document")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.entries = args
		return runCheck(cmd.Context(), g, opts)
	}
	return c
}

func runCheck(ctx context.Context, g *globalConfig, opts *checkOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return &exitError{code: exitConfigOrIO, err: err}
	}

	diags := diag.NewHandler()
	co := build.New(cfg, diags, nil)
	if err := co.Check(ctx, opts.entries); err != nil {
		return &exitError{code: exitInternalInvariant, err: err}
	}

	printDiagnostics(diags, !*g.noColor)
	if diags.HasErrors() {
		return &exitError{code: exitDiagnostics, err: fmt.Errorf("type checking failed")}
	}
	return nil
}
