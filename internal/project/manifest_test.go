package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "demo"
version = "0.1.0"

[build]
target = "x86_64-linux-musl"
output = "out/demo.o"
trace = "phase"
dump-ir = true
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Package.Name != "demo" || m.Package.Version != "0.1.0" {
		t.Fatalf("package: %+v", m.Package)
	}
	if m.Build.Target != "x86_64-linux-musl" || m.Build.Output != "out/demo.o" {
		t.Fatalf("build: %+v", m.Build)
	}
	if m.Build.Trace != "phase" || !m.Build.DumpIR {
		t.Fatalf("build extras: %+v", m.Build)
	}
}

func TestLoadManifestRequiresPackageName(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
version = "0.1.0"
`)
	_, err := LoadManifest(path)
	if !errors.Is(err, ErrPackageNameMissing) {
		t.Fatalf("expected ErrPackageNameMissing, got %v", err)
	}

	path = writeManifest(t, t.TempDir(), `[build]`+"\n")
	_, err = LoadManifest(path)
	if !errors.Is(err, ErrPackageSectionMissing) {
		t.Fatalf("expected ErrPackageSectionMissing, got %v", err)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n")

	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	found, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if filepath.Dir(found) != root {
		t.Fatalf("found %q, want under %q", found, root)
	}

	gotRoot, ok, err := FindProjectRoot(nested)
	if err != nil || !ok || gotRoot != root {
		t.Fatalf("project root: got=%q ok=%v err=%v", gotRoot, ok, err)
	}
}
