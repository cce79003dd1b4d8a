package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"prism/internal/lir"
	"prism/internal/project"
)

// symbolManifestSchema is incremented when the sidecar format changes.
const symbolManifestSchema uint16 = 1

// SymbolInfo describes one function symbol in the object.
type SymbolInfo struct {
	Symbol   string
	Exported bool
}

// SymbolManifest is the sidecar written next to every object file. Linkers
// don't need it; tooling uses it to answer "what is in this object" without
// parsing the object itself.
type SymbolManifest struct {
	Schema  uint16
	Package string
	Target  string

	// ObjectHash digests the object bytes the manifest was written for.
	ObjectHash project.Digest

	Functions []SymbolInfo
	Globals   []string
	ReadOnly  []string
	Externs   []string
}

// SidecarPath returns the manifest path for an object file path.
func SidecarPath(objectPath string) string {
	return objectPath + ".syms"
}

func manifestFor(mod *lir.Module, opts Options, object []byte) *SymbolManifest {
	m := &SymbolManifest{
		Schema:     symbolManifestSchema,
		Package:    opts.Package,
		Target:     opts.Target.Triple(),
		ObjectHash: project.HashBytes(object),
	}
	for i := range mod.Functions {
		f := &mod.Functions[i]
		m.Functions = append(m.Functions, SymbolInfo{Symbol: f.Symbol, Exported: f.Exported})
	}
	for i := range mod.Globals {
		m.Globals = append(m.Globals, mod.Globals[i].Symbol)
	}
	for i := range mod.ReadOnly {
		m.ReadOnly = append(m.ReadOnly, mod.ReadOnly[i].Symbol)
	}
	for i := range mod.Externs {
		m.Externs = append(m.Externs, mod.Externs[i].Symbol)
	}
	return m
}

// WriteSymbolManifest serializes the manifest atomically.
func WriteSymbolManifest(path string, m *SymbolManifest) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("driver: symbol manifest: %w", err)
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("driver: symbol manifest: %w", err)
	}

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(m); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("driver: symbol manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("driver: symbol manifest: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("driver: symbol manifest: %w", err)
	}
	return nil
}

// ReadSymbolManifest loads a sidecar. Unknown schema versions are rejected.
func ReadSymbolManifest(path string) (*SymbolManifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("driver: no symbol manifest at %s", path)
		}
		return nil, fmt.Errorf("driver: symbol manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	var m SymbolManifest
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("driver: symbol manifest: %w", err)
	}
	if m.Schema != symbolManifestSchema {
		return nil, fmt.Errorf("driver: symbol manifest schema %d, want %d", m.Schema, symbolManifestSchema)
	}
	return &m, nil
}
