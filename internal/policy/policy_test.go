package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func writePolicyFile(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "allowlist.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadValidPolicy(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "version: 1\nallowed_commands:\n  - df\n  - ls\n  - git\n")

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Version != 1 {
		t.Errorf("Version = %d, want 1", p.Version)
	}
	if len(p.AllowedCommands) != 3 {
		t.Errorf("AllowedCommands = %v, want 3 entries", p.AllowedCommands)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if _, ok := err.(*MissingError); !ok {
		t.Fatalf("err = %v (%T), want *MissingError", err, err)
	}
}

func TestLoadMissingVersion(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "allowed_commands:\n  - df\n")

	_, err := Load(path)
	if _, ok := err.(*VersionMissingError); !ok {
		t.Fatalf("err = %v (%T), want *VersionMissingError", err, err)
	}
}

func TestLoadMissingAllowedCommands(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "version: 1\n")

	_, err := Load(path)
	if _, ok := err.(*MalformedError); !ok {
		t.Fatalf("err = %v (%T), want *MalformedError", err, err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "version: [1, 2\nallowed_commands: df")

	_, err := Load(path)
	if _, ok := err.(*MalformedError); !ok {
		t.Fatalf("err = %v (%T), want *MalformedError", err, err)
	}
}

func TestIsAllowedExactMatchOnFirstToken(t *testing.T) {
	p := &Policy{Version: 1, AllowedCommands: []string{"df", "ls"}}

	cases := []struct {
		command string
		want    bool
	}{
		{"df -h", true},
		{"ls -la /tmp", true},
		{"dfx -h", false},   // not exact
		{"rm -rf /", false}, // not in allowlist
		{"", false},
	}
	for _, c := range cases {
		if got := p.IsAllowed(c.command); got != c.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", c.command, got, c.want)
		}
	}
}

func TestSHA256StableForSameContent(t *testing.T) {
	dir := t.TempDir()
	path := writePolicyFile(t, dir, "version: 1\nallowed_commands:\n  - df\n")

	h1, err := SHA256(path)
	if err != nil {
		t.Fatalf("SHA256: %v", err)
	}
	h2, err := SHA256(path)
	if err != nil {
		t.Fatalf("SHA256: %v", err)
	}
	if h1 != h2 {
		t.Errorf("SHA256 not stable: %q != %q", h1, h2)
	}

	if err := os.WriteFile(path, []byte("version: 1\nallowed_commands:\n  - df\n  - ls\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	h3, err := SHA256(path)
	if err != nil {
		t.Fatalf("SHA256: %v", err)
	}
	if h3 == h1 {
		t.Error("SHA256 did not change after content change")
	}
}

func TestSHA256MissingFile(t *testing.T) {
	_, err := SHA256(filepath.Join(t.TempDir(), "nope.yaml"))
	if _, ok := err.(*MissingError); !ok {
		t.Fatalf("err = %v (%T), want *MissingError", err, err)
	}
}
