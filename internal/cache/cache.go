// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

// Package cache implements the incremental compilation cache (spec
// §4.5): a manifest keyed by canonical module path, BLAKE3 content
// hashing, bzip2-compressed per-module payloads, and crash-safe
// stage-then-rename writes, laid out the way the teacher stages a
// store object before publishing it (internal/storepath's hashing
// discipline, generalized here from content-addressed store paths to
// content-addressed compiler cache entries).
package cache

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"
	jsonv2 "github.com/go-json-experiment/json"
	"github.com/lukechampine/blake3"

	"typedlua.dev/tlc/internal/ast"
	"typedlua.dev/tlc/internal/symtab"
	"typedlua.dev/tlc/internal/uuid8"
)

// FormatVersion is CACHE_VERSION from spec §6: bumping it invalidates
// every existing entry, since Open discards the whole cache on a
// mismatch rather than trying to interpret an old payload shape.
const FormatVersion = 1

// ErrFormatMismatch names an on-disk manifest whose format version
// differs from FormatVersion. No function in this package returns it:
// Open answers such a manifest with a fresh, empty one.
var ErrFormatMismatch = errors.New("cache format version mismatch")

// Hash is a hex-encoded BLAKE3-256 digest.
type Hash string

// HashBytes returns the BLAKE3-256 digest of data.
func HashBytes(data []byte) Hash {
	sum := blake3.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// ManifestEntry is one module's record in the manifest (spec §4.5).
type ManifestEntry struct {
	ContentHash Hash     `json:"content_hash"`
	DepHashes   []Hash   `json:"dep_hashes"`
	PayloadHash Hash     `json:"payload_hash"`
}

// Manifest is the root `manifest.bin` document.
type Manifest struct {
	FormatVersion int                      `json:"cache_format_version"`
	ConfigHash    Hash                     `json:"config_hash"`
	Entries       map[string]ManifestEntry `json:"entries"`
}

// Payload is the serialized per-module cache record (spec §4.5:
// "{AST, exports, symbol_table}").
type Payload struct {
	AST     *ast.Block      `json:"ast"`
	Exports []string        `json:"exports"`
	Symbols []symtab.Symbol `json:"symbols"`
}

// Cache manages the on-disk layout beneath a cache directory: a single
// manifest.bin at the root, and modules/<hash-prefix>/<hash>.bin per
// module (spec §6 "Cache layout").
type Cache struct {
	dir      string
	Manifest *Manifest
}

// Open loads (or initializes) the cache rooted at dir. A missing or
// version-mismatched manifest yields a fresh, empty Manifest rather
// than an error — the caller rebuilds everything in that case, exactly
// as a cold cache would (spec §4.5: "a version mismatch causes wipe and
// rebuild").
func Open(dir string, configHash Hash) (*Cache, error) {
	c := &Cache{dir: dir}
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.bin"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		c.Manifest = freshManifest(configHash)
		return c, nil
	}
	var m Manifest
	if err := jsonv2.Unmarshal(raw, &m); err != nil {
		// A corrupted manifest is treated the same as a version
		// mismatch: start clean rather than fail the build.
		c.Manifest = freshManifest(configHash)
		return c, nil
	}
	if m.FormatVersion != FormatVersion || m.ConfigHash != configHash {
		c.Manifest = freshManifest(configHash)
		return c, nil
	}
	c.Manifest = &m
	return c, nil
}

func freshManifest(configHash Hash) *Manifest {
	return &Manifest{
		FormatVersion: FormatVersion,
		ConfigHash:    configHash,
		Entries:       make(map[string]ManifestEntry),
	}
}

// Dirty reports whether the module at canonicalPath needs recompiling:
// absent from the manifest, its source hash changed, or any of depHashes
// no longer matches the dependency's own recorded content hash (spec
// §4.5 Invalidation, items a/d — item b/c are handled by Open discarding
// the whole manifest).
func (c *Cache) Dirty(canonicalPath string, sourceHash Hash, depHashes []Hash) bool {
	entry, ok := c.Manifest.Entries[canonicalPath]
	if !ok || entry.ContentHash != sourceHash {
		return true
	}
	if len(entry.DepHashes) != len(depHashes) {
		return true
	}
	for i, h := range depHashes {
		if entry.DepHashes[i] != h {
			return true
		}
	}
	return false
}

// Load rehydrates the cached Payload for canonicalPath, verifying its
// integrity hash (spec §4.5: "every payload carries its own BLAKE3
// hash; a mismatch is reported as a corrupted-file error").
func (c *Cache) Load(canonicalPath string) (*Payload, error) {
	entry, ok := c.Manifest.Entries[canonicalPath]
	if !ok {
		return nil, fmt.Errorf("load cache entry %s: not present in manifest", canonicalPath)
	}
	path := c.entryPath(entry.PayloadHash)
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load cache entry %s: %w", canonicalPath, err)
	}
	raw, err := decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("load cache entry %s: %w", canonicalPath, err)
	}
	if HashBytes(raw) != entry.PayloadHash {
		return nil, fmt.Errorf("load cache entry %s: corrupted payload (hash mismatch)", canonicalPath)
	}
	var p Payload
	if err := jsonv2.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("load cache entry %s: %w", canonicalPath, err)
	}
	return &p, nil
}

// Store writes payload for canonicalPath and records it in the
// in-memory manifest; call [Cache.SaveManifest] to persist the manifest
// itself once a build's worth of entries have been stored.
func (c *Cache) Store(canonicalPath string, sourceHash Hash, depHashes []Hash, payload *Payload) error {
	raw, err := jsonv2.Marshal(payload)
	if err != nil {
		return fmt.Errorf("store cache entry %s: %w", canonicalPath, err)
	}
	payloadHash := HashBytes(raw)
	compressed, err := compress(raw)
	if err != nil {
		return fmt.Errorf("store cache entry %s: %w", canonicalPath, err)
	}
	dest := c.entryPath(payloadHash)
	if err := c.atomicWrite(dest, compressed, payloadHash); err != nil {
		return fmt.Errorf("store cache entry %s: %w", canonicalPath, err)
	}
	c.Manifest.Entries[canonicalPath] = ManifestEntry{
		ContentHash: sourceHash,
		DepHashes:   depHashes,
		PayloadHash: payloadHash,
	}
	return nil
}

// SaveManifest atomically (re)writes manifest.bin.
func (c *Cache) SaveManifest() error {
	raw, err := jsonv2.Marshal(c.Manifest)
	if err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return c.atomicWrite(filepath.Join(c.dir, "manifest.bin"), raw, HashBytes(raw))
}

// entryPath returns modules/<hash-prefix>/<hash>.bin for h (spec §6).
func (c *Cache) entryPath(h Hash) string {
	s := string(h)
	prefix := s
	if len(s) > 2 {
		prefix = s[:2]
	}
	return filepath.Join(c.dir, "modules", prefix, s+".bin")
}

// atomicWrite stages data to a temp file derived deterministically from
// h (so a retried write after a crash reuses the same name instead of
// accumulating orphans) and renames it into place, per spec §4.5 "writes
// are staged to a temp file and atomically renamed".
func (c *Cache) atomicWrite(dest string, data []byte, h Hash) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tempName := tempFileName(h)
	tempPath := filepath.Join(filepath.Dir(dest), tempName)
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tempPath, dest)
}

// tempFileName derives a deterministic temp-file name from h's bytes
// via the adapted uuid8 helper, so two workers racing to write the same
// entry converge on the same temp path instead of leaking one each.
func tempFileName(h Hash) string {
	id := uuid8.FromBytes([]byte(h))
	return "." + id.String() + ".tmp"
}

// CleanOrphans removes any leftover .tmp files under the cache's
// modules directory, the startup sweep spec §4.5 requires ("on startup
// any orphan temp files are removed").
func CleanOrphans(dir string) error {
	modulesDir := filepath.Join(dir, "modules")
	return filepath.WalkDir(modulesDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".tmp" {
			return os.Remove(path)
		}
		return nil
	})
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, nil)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ConfigHash hashes an already-serialized configuration document for use
// as Manifest.ConfigHash.
func ConfigHash(serializedConfig []byte) Hash {
	return HashBytes(serializedConfig)
}
