// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package optimize implements the ordered pass pipeline over the typed
// AST (spec §4.6). Passes are variant-free: each exposes only
// {name, min_level, run(program) → changed}, dispatching on the AST's
// closed sum rather than double dispatch, per the "Visitor polymorphism"
// design note in spec §9. The registry order is fixed; the driver
// iterates the registry and repeats until a full pass over every
// applicable pass reports no change, or a fixpoint budget is exhausted.
package optimize

import (
	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/config"
	"typedlua.dev/tlc/internal/interner"
	"typedlua.dev/tlc/internal/span"
)

// Pass is one optimizer transformation, gated by MinLevel.
type Pass struct {
	Name     string
	MinLevel config.OptimizationLevel
	Run      func(ctx *Context, prog *ast.Program) bool
}

// Context carries the whole-program analyses and annotation side-tables
// passes build once and share read-only (spec §4.6: "whole-program
// analyses... are built once, shared read-only across passes"), plus the
// hint tables the code generator consults after the pipeline quiesces.
// Annotations are keyed by span.Span rather than carried as extra AST
// fields, since ast.Statement/Expression are closed sums whose shape the
// optimizer must not perturb (spec §9 "Visitor polymorphism").
type Context struct {
	Config *config.CompilerConfig

	Classes *ClassHierarchy

	// PreallocSizes maps an ArrayExpr/ObjectExpr's span to its statically
	// known element count, for codegen's table-constructor preallocation.
	PreallocSizes map[span.Span]int

	// LocalizedGlobals maps a function/arrow body's span to the global
	// names codegen should hoist into locals at the top of that body.
	LocalizedGlobals map[span.Span][]interner.ID

	// TailSelfCalls marks a return statement's span as a direct
	// tail-self-call. Codegen emits it on every target as an ordinary
	// `return f(...)` tagged with a `-- tail self-call` comment; it is
	// not rewritten into a loop.
	TailSelfCalls map[span.Span]bool

	// Devirtualized maps a method-call expression's span to the concrete
	// class name codegen should call directly instead of dispatching
	// through the instance's metatable.
	Devirtualized map[span.Span]interner.ID

	// ConcatChains maps a `..` expression's span to the number of
	// fragments in its flattened chain, once that count reaches the
	// threshold where codegen should emit table.concat over a table
	// constructor instead of nested `..` (spec §4.6 string-concat pass).
	ConcatChains map[span.Span]int

	// Specialized maps a generic call expression's span to a
	// specialization tag (the argument literal kinds, joined), which
	// codegen appends to the generic function's emitted name to name a
	// monomorphized copy instead of calling the generic definition.
	Specialized map[span.Span]string

	// LoopInvariants maps a for-loop statement's span to the spans of
	// distinct loop-invariant subexpressions in its body. Codegen only
	// writes a comment with their count above the loop; it does not
	// hoist them into preheader locals or substitute references, and the
	// optimizer introduces no new identifiers itself (spec §4.6
	// loop-optimization pass).
	LoopInvariants map[span.Span][]span.Span
}

// NewContext returns an empty Context for cfg, with Classes built from
// prog's class declarations.
func NewContext(cfg *config.CompilerConfig, prog *ast.Program) *Context {
	return &Context{
		Config:           cfg,
		Classes:          BuildClassHierarchy(prog),
		PreallocSizes:    make(map[span.Span]int),
		LocalizedGlobals: make(map[span.Span][]interner.ID),
		TailSelfCalls:    make(map[span.Span]bool),
		Devirtualized:    make(map[span.Span]interner.ID),
		ConcatChains:     make(map[span.Span]int),
		Specialized:      make(map[span.Span]string),
		LoopInvariants:   make(map[span.Span][]span.Span),
	}
}

// MaxFixpointIterations bounds how many times the driver retries the
// full pass list before giving up on quiescence (spec §4.6: "terminates
// when none reports a change or when a per-pipeline fixpoint budget is
// exhausted").
const MaxFixpointIterations = 16

// Registry is the ordered pass list (spec §4.6 pass catalog), in the
// order the pipeline applies them each iteration.
var Registry = []Pass{
	{Name: "constant-folding", MinLevel: config.O1, Run: ConstantFolding},
	{Name: "algebraic-simplification", MinLevel: config.O1, Run: AlgebraicSimplification},
	{Name: "dead-code-elimination", MinLevel: config.O1, Run: DeadCodeElimination},
	{Name: "string-concat-optimization", MinLevel: config.O1, Run: StringConcatOptimization},
	{Name: "table-preallocation", MinLevel: config.O1, Run: TablePreallocation},
	{Name: "global-localization", MinLevel: config.O1, Run: GlobalLocalization},
	{Name: "loop-optimization", MinLevel: config.O2, Run: LoopOptimization},
	{Name: "function-inlining", MinLevel: config.O2, Run: FunctionInlining},
	{Name: "dead-store-elimination", MinLevel: config.O2, Run: DeadStoreElimination},
	{Name: "tail-call-optimization", MinLevel: config.O2, Run: TailCallOptimization},
	{Name: "generic-specialization", MinLevel: config.O3, Run: GenericSpecialization},
	{Name: "devirtualization", MinLevel: config.O3, Run: Devirtualization},
}

// Result reports which passes ran and whether quiescence was reached
// before the fixpoint budget ran out.
type Result struct {
	PassesRun []string
	Quiesced  bool

	// Ctx is the annotation side-tables the pipeline accumulated, for
	// the code generator to consult (spec §4.6/§4.7). Exposed on Result
	// rather than requiring a second NewContext+manual-driver call from
	// every caller.
	Ctx *Context
}

// Run applies Registry to prog in order, repeating until an iteration
// makes no change or MaxFixpointIterations is reached. A pass not
// gated in by cfg.OptimizationLevel is skipped every iteration (spec
// §4.6: "each declaring a minimum optimization level").
func Run(cfg *config.CompilerConfig, prog *ast.Program) Result {
	ctx := NewContext(cfg, prog)
	result := Result{Ctx: ctx}
	for iter := 0; iter < MaxFixpointIterations; iter++ {
		changedThisIter := false
		for _, p := range Registry {
			if !cfg.AtLeast(p.MinLevel) {
				continue
			}
			if p.Run(ctx, prog) {
				changedThisIter = true
				result.PassesRun = append(result.PassesRun, p.Name)
			}
		}
		if !changedThisIter {
			result.Quiesced = true
			return result
		}
	}
	return result
}
