package driver

import (
	"os"
	"path/filepath"
	"testing"

	"prism/internal/backend"
	"prism/internal/lir"
	"prism/internal/mono"
	"prism/internal/project"
	"prism/internal/target"
	"prism/internal/types"
)

type stubObject struct {
	declared map[string]bool
}

func newStubObject() *stubObject {
	return &stubObject{declared: make(map[string]bool)}
}

func (s *stubObject) DeclareFunction(symbol string, _ backend.Linkage, _ backend.Signature) error {
	s.declared[symbol] = true
	return nil
}
func (s *stubObject) DefineFunction(string, *lir.Func) error     { return nil }
func (s *stubObject) DefineNative(string, *backend.Function) error { return nil }
func (s *stubObject) DefineData(string, backend.Linkage, []byte, bool) error { return nil }
func (s *stubObject) DefineZeroed(string, backend.Linkage, uint32, bool) error { return nil }
func (s *stubObject) HasFunction(symbol string) bool { return s.declared[symbol] }
func (s *stubObject) Finish() ([]byte, error)        { return []byte{0x7f, 'E', 'L', 'F'}, nil }

func testModule(t *testing.T) *lir.Module {
	t.Helper()
	engine := mono.NewTypes(types.NoDefID, 8)
	mod := lir.NewModule(engine.Records)

	b := lir.NewBlocks()
	b.SetTail(lir.Flow{Kind: lir.FlowUnreachable})
	mod.Main = mod.PushFunction(lir.Func{Symbol: "app_main", Blocks: b, Returns: mono.UnitType()})
	mod.PushExtern(lir.Extern{Symbol: "malloc",
		Params:  []mono.Type{mono.Int(types.MakeIntSize(false, 64))},
		Returns: mono.BytePointer()})
	return mod
}

func TestBuildWritesObjectAndSidecar(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "app.o")

	mod := testModule(t)
	result, err := Build(mod, Options{
		Target:  target.Default,
		Output:  out,
		Package: "app",
	}, newStubObject())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	data, err := os.ReadFile(result.ObjectPath)
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if result.ObjectSize != len(data) {
		t.Fatalf("object size: got=%d want=%d", result.ObjectSize, len(data))
	}

	m, err := ReadSymbolManifest(result.SymbolsPath)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if m.Package != "app" || m.Target != target.Default.Triple() {
		t.Fatalf("manifest header: %+v", m)
	}
	if len(m.Functions) != 1 || m.Functions[0].Symbol != "app_main" {
		t.Fatalf("manifest functions: %+v", m.Functions)
	}
	if len(m.Externs) != 1 || m.Externs[0] != "malloc" {
		t.Fatalf("manifest externs: %+v", m.Externs)
	}
	if m.ObjectHash != project.HashBytes(data) {
		t.Fatalf("object hash does not match object bytes")
	}
}

func TestBuildRejectsMalformedModule(t *testing.T) {
	mod := testModule(t)

	b := lir.NewBlocks()
	b.CallStatic(lir.FuncID(42), nil, mono.UnitType())
	b.SetTail(lir.Flow{Kind: lir.FlowUnreachable})
	mod.PushFunction(lir.Func{Symbol: "broken", Blocks: b, Returns: mono.UnitType()})

	_, err := Build(mod, Options{
		Target: target.Default,
		Output: filepath.Join(t.TempDir(), "app.o"),
	}, newStubObject())
	if err == nil {
		t.Fatalf("expected validation failure")
	}
}

func TestBuildDumpsIRWhenRequested(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.o")
	_, err := Build(testModule(t), Options{
		Target: target.Default,
		Output: out,
		DumpIR: true,
	}, newStubObject())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	dump, err := os.ReadFile(out + ".lir")
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if len(dump) == 0 {
		t.Fatalf("empty IR dump")
	}
}

func TestOptionsFromManifest(t *testing.T) {
	root := t.TempDir()
	m := project.Manifest{
		Package: project.PackageSection{Name: "demo"},
		Build: project.BuildSection{
			Target: "x86_64-linux-syscall",
			Output: "out/demo.o",
		},
	}

	opts, err := OptionsFromManifest(m, root)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Target.Platform != target.LinuxSyscall {
		t.Fatalf("target: got=%s", opts.Target)
	}
	if opts.Output != filepath.Join(root, "out", "demo.o") {
		t.Fatalf("output: got=%q", opts.Output)
	}
	if opts.Package != "demo" {
		t.Fatalf("package: got=%q", opts.Package)
	}

	m.Build.Target = "sparc-linux-gnu"
	if _, err := OptionsFromManifest(m, root); err == nil {
		t.Fatalf("expected error for unsupported target")
	}
}
