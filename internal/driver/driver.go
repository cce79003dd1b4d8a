// Package driver runs the lowering pipeline end to end: validate the
// lowered module, emit object code for the target, write the object file,
// and write the symbol manifest sidecar next to it.
package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"prism/internal/backend"
	"prism/internal/lir"
	"prism/internal/project"
	"prism/internal/target"
	"prism/internal/trace"
)

// Options configures one build.
type Options struct {
	Target target.Target
	Tracer trace.Tracer

	// Output is the object file path. Empty means "<package>.o" in the
	// working directory.
	Output string

	// Package names the compilation unit in the symbol manifest.
	Package string

	// DumpIR writes the lowered module listing to "<output>.lir".
	DumpIR bool
}

// OptionsFromManifest derives build options from a parsed prism.toml.
// Paths in the manifest are resolved against the project root.
func OptionsFromManifest(m project.Manifest, root string) (Options, error) {
	opts := Options{
		Target:  target.Default,
		Tracer:  trace.Nop,
		Package: m.Package.Name,
		DumpIR:  m.Build.DumpIR,
	}

	if m.Build.Target != "" {
		tgt, err := target.ParseTriple(m.Build.Target)
		if err != nil {
			return Options{}, err
		}
		opts.Target = tgt
	}

	if m.Build.Output != "" {
		opts.Output = m.Build.Output
		if !filepath.IsAbs(opts.Output) {
			opts.Output = filepath.Join(root, opts.Output)
		}
	} else {
		opts.Output = filepath.Join(root, m.Package.Name+".o")
	}

	if m.Build.Trace != "" {
		level, err := trace.ParseLevel(m.Build.Trace)
		if err != nil {
			return Options{}, err
		}
		tracer, err := trace.New(trace.Config{Level: level, OutputPath: m.Build.TraceOutput})
		if err != nil {
			return Options{}, err
		}
		opts.Tracer = tracer
	}

	return opts, nil
}

// Result reports what a build produced.
type Result struct {
	ObjectPath  string
	SymbolsPath string
	ObjectSize  int
}

// Build validates mod, emits it through object, and writes the object file
// plus its symbol manifest.
func Build(mod *lir.Module, opts Options, object backend.ObjectModule) (*Result, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	build := trace.Begin(tracer, trace.ScopeDriver, "build", 0)
	defer build.End("")

	validate := trace.Begin(tracer, trace.ScopePass, "validate", build.ID())
	err := lir.Validate(mod)
	validate.End("")
	if err != nil {
		return nil, fmt.Errorf("driver: module is malformed: %w", err)
	}

	if opts.DumpIR {
		if err := writeIRDump(mod, opts.Output+".lir"); err != nil {
			return nil, err
		}
	}

	emit := trace.Begin(tracer, trace.ScopePass, "emit", build.ID())
	bytes, err := backend.Run(mod, opts.Target, object)
	emit.End(fmt.Sprintf("functions=%d", len(mod.Functions)))
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(opts.Output, bytes); err != nil {
		return nil, fmt.Errorf("driver: write object: %w", err)
	}

	manifest := manifestFor(mod, opts, bytes)
	symbolsPath := SidecarPath(opts.Output)
	if err := WriteSymbolManifest(symbolsPath, manifest); err != nil {
		return nil, err
	}

	return &Result{
		ObjectPath:  opts.Output,
		SymbolsPath: symbolsPath,
		ObjectSize:  len(bytes),
	}, nil
}

func writeIRDump(mod *lir.Module, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("driver: open IR dump: %w", err)
	}
	if err := lir.DumpModule(f, mod); err != nil {
		_ = f.Close()
		return fmt.Errorf("driver: write IR dump: %w", err)
	}
	return f.Close()
}

// writeAtomic writes via a temp file and rename so partial objects are
// never observed.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}
