package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is the parsed prism.toml.
type Manifest struct {
	Package PackageSection
	Build   BuildSection
}

// PackageSection is [package].
type PackageSection struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// BuildSection is [build]. All fields are optional.
type BuildSection struct {
	// Target is the arch-os-env triple, e.g. "x86_64-linux-gnu".
	Target string `toml:"target"`

	// Output is the object file path, relative to the project root.
	Output string `toml:"output"`

	// Trace is the trace level (off|phase|detail|debug).
	Trace string `toml:"trace"`

	// TraceOutput is where the trace stream goes ("-" for stderr).
	TraceOutput string `toml:"trace-output"`

	// DumpIR writes the lowered module listing next to the object file.
	DumpIR bool `toml:"dump-ir"`
}

var (
	// ErrPackageSectionMissing indicates prism.toml has no [package].
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates [package].name is missing or empty.
	ErrPackageNameMissing = errors.New("missing [package].name")
)

type manifestFile struct {
	Package PackageSection `toml:"package"`
	Build   BuildSection   `toml:"build"`
}

// LoadManifest parses and validates a prism.toml.
func LoadManifest(path string) (Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Manifest{}, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	name := strings.TrimSpace(cfg.Package.Name)
	if !meta.IsDefined("package", "name") || name == "" {
		return Manifest{}, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	return Manifest{
		Package: PackageSection{Name: name, Version: strings.TrimSpace(cfg.Package.Version)},
		Build:   cfg.Build,
	}, nil
}
