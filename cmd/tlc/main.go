// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Command tlc is the TypedLua compiler's command-line front end: it
// compiles or type-checks a project, prints its diagnostics, and
// manages the on-disk incremental cache (spec §6 "CLI surface").
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"zombiezen.com/go/log"
)

// Exit codes, per spec §6: "0 success, 1 diagnostics contained errors,
// 2 configuration/IO failure, 3 internal-invariant violation."
const (
	exitSuccess           = 0
	exitDiagnostics       = 1
	exitConfigOrIO        = 2
	exitInternalInvariant = 3
)

// exitError carries the process exit code a failed command should
// terminate with, distinguishing "ran fine, but reported errors" from
// "couldn't run at all" without every runXxx function calling os.Exit
// itself.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	rootCommand := &cobra.Command{
		Use:           "tlc",
		Short:         "TypedLua compiler",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	showDebug := rootCommand.PersistentFlags().Bool("debug", false, "show debugging output")
	noColor := rootCommand.PersistentFlags().Bool("no-color", false, "disable colored diagnostic output")
	rootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogging(*showDebug)
		return nil
	}

	g := &globalConfig{noColor: noColor}
	rootCommand.AddCommand(
		newBuildCommand(g),
		newCheckCommand(g),
		newCleanCommand(g),
		newDiagnoseCommand(g),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err == nil {
		os.Exit(exitSuccess)
	}

	initLogging(*showDebug)
	code := exitInternalInvariant
	var ee *exitError
	if as(err, &ee) {
		code = ee.code
		err = ee.err
	}
	log.Errorf(context.Background(), "%v", err)
	os.Exit(code)
}

func as(err error, target **exitError) bool {
	ee, ok := err.(*exitError)
	if !ok {
		return false
	}
	*target = ee
	return true
}

// globalConfig holds flags shared across every subcommand.
type globalConfig struct {
	noColor *bool
}

var initLogOnce sync.Once

// initLogging installs the process-wide logger once, in the teacher's
// level-filter-plus-prefixed-writer style.
func initLogging(showDebug bool) {
	initLogOnce.Do(func() {
		minLevel := log.Info
		if showDebug {
			minLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLevel,
			Output: log.New(os.Stderr, "tlc: ", log.StdFlags, nil),
		})
	})
}
