// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"typedlua.dev/tlc/internal/config"
)

type cleanOptions struct {
	configPath string
}

func newCleanCommand(g *globalConfig) *cobra.Command {
	opts := new(cleanOptions)
	c := &cobra.Command{
		Use:                   "clean",
		Short:                 "remove the incremental build cache",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.Flags().StringVar(&opts.configPath, "config", "tlconfig.json", "`path` to the compiler configuration document")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runClean(cmd.Context(), g, opts)
	}
	return c
}

func runClean(_ context.Context, _ *globalConfig, opts *cleanOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return &exitError{code: exitConfigOrIO, err: err}
	}
	if cfg.CacheDir == "" {
		return nil
	}
	if err := os.RemoveAll(cfg.CacheDir); err != nil {
		return &exitError{code: exitConfigOrIO, err: fmt.Errorf("clean cache: %w", err)}
	}
	return nil
}
