// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"typedlua.dev/tlc/internal/build"
	"typedlua.dev/tlc/internal/cache"
	"typedlua.dev/tlc/internal/config"
	"typedlua.dev/tlc/internal/diag"
)

type buildOptions struct {
	configPath string
	outputDir  string
	entries    []string
}

func newBuildCommand(g *globalConfig) *cobra.Command {
	opts := new(buildOptions)
	c := &cobra.Command{
		Use:                   "build [options] FILE...",
		Short:                 "compile TypedLua sources to Lua",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.Flags().StringVar(&opts.configPath, "config", "tlconfig.json", "`path` to the compiler configuration document")
	c.Flags().StringVar(&opts.outputDir, "out", "out", "output directory for compiled Lua")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.entries = args
		return runBuild(cmd.Context(), g, opts)
	}
	return c
}

func runBuild(ctx context.Context, g *globalConfig, opts *buildOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return &exitError{code: exitConfigOrIO, err: err}
	}

	diags := diag.NewHandler()
	c, err := openCache(cfg)
	if err != nil {
		return &exitError{code: exitConfigOrIO, err: err}
	}

	start := time.Now()
	co := build.New(cfg, diags, c)
	res, err := co.Build(ctx, opts.entries)
	if err != nil {
		return &exitError{code: exitInternalInvariant, err: err}
	}

	if c != nil {
		if err := c.SaveManifest(); err != nil {
			return &exitError{code: exitConfigOrIO, err: fmt.Errorf("save cache manifest: %w", err)}
		}
	}

	root := filepath.Dir(opts.entries[0])
	if err := co.WriteOutputs(opts.outputDir, root, res); err != nil {
		return &exitError{code: exitConfigOrIO, err: err}
	}

	printDiagnostics(diags, !*g.noColor)
	printSummary(res, time.Since(start))

	if diags.HasErrors() {
		return &exitError{code: exitDiagnostics, err: fmt.Errorf("build failed with diagnostics")}
	}
	return nil
}

// openCache opens the incremental cache at cfg.CacheDir, sweeping
// orphaned temp files left behind by a crashed prior run (spec §4.5:
// "on startup any orphan temp files are removed").
func openCache(cfg *config.CompilerConfig) (*cache.Cache, error) {
	if cfg.CacheDir == "" {
		return nil, nil
	}
	serialized, err := serializeConfigForHash(cfg)
	if err != nil {
		return nil, err
	}
	if err := cache.CleanOrphans(cfg.CacheDir); err != nil {
		return nil, fmt.Errorf("clean cache orphans: %w", err)
	}
	return cache.Open(cfg.CacheDir, cache.ConfigHash(serialized))
}

func serializeConfigForHash(cfg *config.CompilerConfig) ([]byte, error) {
	return []byte(fmt.Sprintf("%s|%s|%t|%t|%t|%t|%s|%t|%t|%t",
		cfg.Target, cfg.OptimizationLevel, cfg.Strict, cfg.AllowNonTypedLua,
		cfg.CopyLuaToOutput, cfg.Bundle, cfg.BundleEntry, cfg.TreeShaking,
		cfg.ScopeHoisting, cfg.SourceMap)), nil
}

// printDiagnostics prints h's sorted diagnostics to stderr, one per
// line, using color only when useColor is true and stderr is a
// terminal (spec §6 CLI surface: "print diagnostics").
func printDiagnostics(h *diag.Handler, useColor bool) {
	useColor = useColor && term.IsTerminal(int(os.Stderr.Fd()))
	for _, d := range h.Sorted() {
		if useColor {
			fmt.Fprintln(os.Stderr, colorize(d))
			continue
		}
		fmt.Fprintln(os.Stderr, d.String())
	}
}

func colorize(d diag.Diagnostic) string {
	const (
		red    = "\x1b[31m"
		yellow = "\x1b[33m"
		reset  = "\x1b[0m"
	)
	color := reset
	switch d.Level {
	case diag.Error:
		color = red
	case diag.Warning:
		color = yellow
	}
	return color + d.String() + reset
}

func printSummary(res *build.Result, elapsed time.Duration) {
	var total uint64
	for _, u := range res.Units {
		total += uint64(len(u.Lua))
	}
	if res.Bundle != nil {
		total += uint64(len(res.Bundle))
	}
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	line := fmt.Sprintf("compiled %d unit(s), %s written in %s", len(res.Units), humanize.Bytes(total), elapsed.Round(time.Millisecond))
	if len(line) > width {
		line = line[:width]
	}
	fmt.Fprintln(os.Stdout, line)
}
