// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package interner provides a process-wide, append-only table mapping
// identifier and string-literal bytes to dense integer IDs.
//
// An [Interner] is monotonically growing within a single compilation: new
// strings are assigned the next sequential ID and never recycled. Readers
// that only need to resolve IDs to strings (e.g. a parallel code
// generator) may share a single Interner by reference without
// synchronization, provided no further interning happens concurrently;
// see [Interner.Snapshot].
package interner

import "sync"

// ID is a dense integer identifying an interned string.
// Equality between two IDs from the same Interner is equivalent to
// equality of the underlying strings.
type ID uint32

// Invalid is the zero ID. No string is ever interned at ID 0; it is
// reserved so that a zero-valued ID field reads as "absent" rather than
// "the first common identifier".
const Invalid ID = 0

// Interner is a monotonic string-to-ID table.
// The zero value is not usable; use [New].
type Interner struct {
	mu      sync.RWMutex
	byBytes map[string]ID
	strings []string
}

// New returns an empty Interner with ID 0 reserved.
func New() *Interner {
	in := &Interner{
		byBytes: make(map[string]ID),
		strings: make([]string, 1), // index 0 is Invalid
	}
	return in
}

// Intern returns the ID for s, assigning a new one if s has not been seen
// before by this Interner.
func (in *Interner) Intern(s string) ID {
	in.mu.RLock()
	if id, ok := in.byBytes[s]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.byBytes[s]; ok {
		return id
	}
	id := ID(len(in.strings))
	// Copy to avoid retaining a larger backing array from the caller.
	owned := string(append([]byte(nil), s...))
	in.strings = append(in.strings, owned)
	in.byBytes[owned] = id
	return id
}

// Lookup returns the string for id and whether id was valid.
func (in *Interner) Lookup(id ID) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == Invalid || int(id) >= len(in.strings) {
		return "", false
	}
	return in.strings[id], true
}

// MustLookup returns the string for id, panicking if id is invalid.
// Used where id is known to have come from this Interner.
func (in *Interner) MustLookup(id ID) string {
	s, ok := in.Lookup(id)
	if !ok {
		panic("interner: invalid id")
	}
	return s
}

// Len returns the number of distinct strings interned, not counting the
// reserved zero ID.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.strings) - 1
}

// Snapshot returns a read-only view safe to share across goroutines that
// only resolve IDs (e.g. parallel code generation workers), per the
// concurrency model: the interner is append-only and readers may take a
// snapshot while writes happen only during lex/parse of a unit.
func (in *Interner) Snapshot() *Snapshot {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return &Snapshot{strings: append([]string(nil), in.strings...)}
}

// Snapshot is an immutable point-in-time view of an Interner.
type Snapshot struct {
	strings []string
}

// Lookup resolves id against the strings known at snapshot time.
func (s *Snapshot) Lookup(id ID) (string, bool) {
	if id == Invalid || int(id) >= len(s.strings) {
		return "", false
	}
	return s.strings[id], true
}

// Common holds the IDs of identifiers pre-interned at startup, so hot
// comparisons (e.g. "is this method named 'new'?") are integer compares
// rather than string compares.
type Common struct {
	Self    ID
	New     ID
	Init    ID
	Nil     ID
	Boolean ID
	Number  ID
	Integer ID
	String  ID
	Unknown ID
	Never   ID
	Void    ID
	Table   ID
	Coroutine ID
}

// NewWithCommon returns an Interner with the well-known identifiers used
// throughout the type checker and code generator pre-interned, plus the
// resulting [Common] table of their IDs.
func NewWithCommon() (*Interner, Common) {
	in := New()
	c := Common{
		Self:      in.Intern("self"),
		New:       in.Intern("new"),
		Init:      in.Intern("_init"),
		Nil:       in.Intern("nil"),
		Boolean:   in.Intern("boolean"),
		Number:    in.Intern("number"),
		Integer:   in.Intern("integer"),
		String:    in.Intern("string"),
		Unknown:   in.Intern("unknown"),
		Never:     in.Intern("never"),
		Void:      in.Intern("void"),
		Table:     in.Intern("table"),
		Coroutine: in.Intern("coroutine"),
	}
	return in, c
}
