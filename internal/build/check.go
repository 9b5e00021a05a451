// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package build

import (
	"context"

	"golang.org/x/sync/errgroup"
	"zombiezen.com/go/log"

	"typedlua.dev/tlc/internal/check"
	"typedlua.dev/tlc/internal/diag"
	"typedlua.dev/tlc/internal/resolve"
	"typedlua.dev/tlc/internal/span"
)

// Check discovers and type-checks every unit reachable from
// entryPaths without running the optimizer, code generator, or cache
// (spec §6 CLI surface: "type-check only"). Diagnostics accumulate in
// the Coordinator's handler exactly as they do during Build.
func (co *Coordinator) Check(ctx context.Context, entryPaths []string) error {
	units, graph, err := co.discover(ctx, entryPaths)
	if err != nil {
		return err
	}

	if _, _, err := graph.TopoSort(); err != nil {
		var cycleErr *resolve.CycleError
		if ok := asCycleError(err, &cycleErr); ok {
			co.diags.Reportf(diag.Error, diag.Resolution, diag.File{}, span.Span{}, "%v", cycleErr)
		} else {
			return err
		}
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	for path, u := range units {
		if u.lua {
			continue
		}
		path, u := path, u
		grp.Go(func() error {
			defer close(u.done)

			if !co.waitDeps(grpCtx, units, u) {
				return grpCtx.Err()
			}
			select {
			case co.sem <- struct{}{}:
				defer func() { <-co.sem }()
			case <-grpCtx.Done():
				return grpCtx.Err()
			}
			if grpCtx.Err() != nil {
				return grpCtx.Err()
			}
			log.Debugf(ctx, "build: checking %s", path)
			checker := check.New(co.interner, co.common, co.diags, diag.File{ID: u.file, Path: string(u.path)})
			checker.CheckProgram(u.prog)
			return nil
		})
	}
	_ = grp.Wait()
	return nil
}
