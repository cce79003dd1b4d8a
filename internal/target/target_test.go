package target

import "testing"

func TestParseTriple(t *testing.T) {
	cases := []struct {
		triple string
		want   Target
		ok     bool
	}{
		{"x86_64-linux-gnu", Target{X86_64, LinuxGnu}, true},
		{"amd64-linux-gnu", Target{X86_64, LinuxGnu}, true},
		{"x86_64-linux-musl", Target{X86_64, LinuxMusl}, true},
		{"x86_64-linux-syscall", Target{X86_64, LinuxSyscall}, true},
		{"x86_64-linux-none", Target{X86_64, LinuxSyscall}, true},
		{"x86_64-linux", Target{}, false},
		{"riscv64-linux-gnu", Target{}, false},
		{"x86_64-darwin-gnu", Target{}, false},
		{"x86_64-linux-microsoft", Target{}, false},
	}

	for _, tc := range cases {
		got, err := ParseTriple(tc.triple)
		if tc.ok && err != nil {
			t.Fatalf("ParseTriple(%q): unexpected error: %v", tc.triple, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("ParseTriple(%q): expected error", tc.triple)
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("ParseTriple(%q): got=%s want=%s", tc.triple, got, tc.want)
		}
	}
}

func TestEntrySymbol(t *testing.T) {
	if got := (Target{X86_64, LinuxGnu}).EntrySymbol(); got != "main" {
		t.Fatalf("hosted entry: got=%q want=main", got)
	}
	if got := (Target{X86_64, LinuxSyscall}).EntrySymbol(); got != "_start" {
		t.Fatalf("freestanding entry: got=%q want=_start", got)
	}
}

func TestTripleRoundTrips(t *testing.T) {
	for _, tgt := range All() {
		parsed, err := ParseTriple(tgt.Triple())
		if err != nil {
			t.Fatalf("ParseTriple(%q): %v", tgt.Triple(), err)
		}
		if parsed != tgt {
			t.Fatalf("round trip: got=%s want=%s", parsed, tgt)
		}
	}
}
