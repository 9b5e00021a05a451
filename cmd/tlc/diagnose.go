// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"typedlua.dev/tlc/internal/build"
	"typedlua.dev/tlc/internal/config"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/lspwire"
)

type diagnoseOptions struct {
	configPath string
	lspJSON    bool
	entries    []string
}

func newDiagnoseCommand(g *globalConfig) *cobra.Command {
	opts := new(diagnoseOptions)
	c := &cobra.Command{
		Use:                   "diagnose [options] FILE...",
		Short:                 "type-check and print diagnostics",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.Flags().StringVar(&opts.configPath, "config", "tlconfig.json", "`path` to the compiler configuration document")
	c.Flags().BoolVar(&opts.lspJSON, "lsp-json", false, "print diagnostics as LSP-shaped publishDiagnostics JSON instead of plain text")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.entries = args
		return runDiagnose(cmd.Context(), g, opts)
	}
	return c
}

func runDiagnose(ctx context.Context, g *globalConfig, opts *diagnoseOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return &exitError{code: exitConfigOrIO, err: err}
	}

	diags := diag.NewHandler()
	co := build.New(cfg, diags, nil)
	if err := co.Check(ctx, opts.entries); err != nil {
		return &exitError{code: exitInternalInvariant, err: err}
	}

	if opts.lspJSON {
		if err := printLSPJSON(diags); err != nil {
			return &exitError{code: exitInternalInvariant, err: err}
		}
	} else {
		printDiagnostics(diags, !*g.noColor)
	}

	if diags.HasErrors() {
		return &exitError{code: exitDiagnostics, err: fmt.Errorf("diagnostics reported errors")}
	}
	return nil
}

// printLSPJSON encodes diags as one publishDiagnostics payload per
// file, the shape a language server emits over JSON-RPC (spec §6); the
// JSON-RPC transport itself is out of scope here, only the wire
// encoding (internal/lspwire) is exercised.
func printLSPJSON(diags *diag.Handler) error {
	files := make(map[int32]diag.File)
	for _, d := range diags.Sorted() {
		files[int32(d.File.ID)] = d.File
	}
	params := lspwire.PublishParams(diags, files, func(f diag.File) string {
		return "file://" + f.Path
	})
	for _, p := range params {
		raw, err := lspwire.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := os.Stdout.Write(append(raw, '\n')); err != nil {
			return err
		}
	}
	return nil
}
