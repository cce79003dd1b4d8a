// Package target describes the machines object code is produced for.
package target

import (
	"fmt"
	"strings"
)

// Arch is the instruction set architecture.
type Arch uint8

const (
	// X86_64 is the only supported architecture.
	X86_64 Arch = iota
)

func (a Arch) String() string {
	switch a {
	case X86_64:
		return "x86_64"
	default:
		return "<invalid>"
	}
}

// Platform selects the operating environment and libc.
type Platform uint8

const (
	// LinuxGnu is hosted Linux against glibc.
	LinuxGnu Platform = iota
	// LinuxMusl is hosted Linux against musl.
	LinuxMusl
	// LinuxSyscall is freestanding Linux: no libc, raw syscalls only.
	LinuxSyscall
)

func (p Platform) String() string {
	switch p {
	case LinuxGnu:
		return "linux-gnu"
	case LinuxMusl:
		return "linux-musl"
	case LinuxSyscall:
		return "linux-syscall"
	default:
		return "<invalid>"
	}
}

// Target is one supported (arch, platform) pair.
type Target struct {
	Arch     Arch
	Platform Platform
}

// Default is what builds target when no triple is given.
var Default = Target{Arch: X86_64, Platform: LinuxGnu}

// All lists every supported target.
func All() []Target {
	return []Target{
		{X86_64, LinuxGnu},
		{X86_64, LinuxMusl},
		{X86_64, LinuxSyscall},
	}
}

// ParseTriple parses "arch-os-env" triples such as "x86_64-linux-gnu".
func ParseTriple(triple string) (Target, error) {
	parts := strings.Split(triple, "-")
	if len(parts) != 3 {
		return Target{}, fmt.Errorf("target: malformed triple %q, want arch-os-env", triple)
	}

	var t Target
	switch parts[0] {
	case "x86_64", "amd64":
		t.Arch = X86_64
	default:
		return Target{}, fmt.Errorf("target: unsupported architecture %q", parts[0])
	}

	if parts[1] != "linux" {
		return Target{}, fmt.Errorf("target: unsupported operating system %q", parts[1])
	}

	switch parts[2] {
	case "gnu":
		t.Platform = LinuxGnu
	case "musl":
		t.Platform = LinuxMusl
	case "syscall", "none":
		t.Platform = LinuxSyscall
	default:
		return Target{}, fmt.Errorf("target: unsupported environment %q", parts[2])
	}
	return t, nil
}

// Triple renders the canonical arch-os-env form.
func (t Target) Triple() string {
	return t.Arch.String() + "-" + t.Platform.String()
}

func (t Target) String() string {
	return t.Triple()
}

// PtrSize returns the pointer width in bytes.
func (t Target) PtrSize() uint32 {
	switch t.Arch {
	case X86_64:
		return 8
	default:
		panic(fmt.Sprintf("target: pointer size of invalid arch %d", t.Arch))
	}
}

// Hosted reports whether a libc hosts the program. Freestanding targets
// provide their own entry and exit via raw syscalls.
func (t Target) Hosted() bool {
	return t.Platform != LinuxSyscall
}

// EntrySymbol returns the symbol the linker resolves program startup to.
func (t Target) EntrySymbol() string {
	if t.Hosted() {
		return "main"
	}
	return "_start"
}
