package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Load reads and parses the allowlist policy at path. It fails with
// *MissingError if the file does not exist, *MalformedError if it does not
// parse, and *VersionMissingError if the "version" field is absent --
// matching the original runtime's three distinct failure modes rather than
// collapsing them into one generic parse error.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingError{Path: path}
		}
		return nil, fmt.Errorf("reading policy %s: %w", path, err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedError{Path: path, Reason: err.Error()}
	}
	if _, ok := raw["version"]; !ok {
		return nil, &VersionMissingError{Path: path}
	}
	if _, ok := raw["allowed_commands"]; !ok {
		return nil, &MalformedError{Path: path, Reason: "allowed_commands missing"}
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, &MalformedError{Path: path, Reason: err.Error()}
	}

	slog.Debug("loaded command policy", "path", path, "version", p.Version, "commands", len(p.AllowedCommands))
	return &p, nil
}

// SHA256 returns the hex-encoded SHA-256 digest of the policy file's raw
// bytes on disk, read in fixed-size chunks rather than loaded whole --
// the Policy Lock fingerprints the file's bytes, not its parsed form, so
// that any byte-level edit is detected even if it doesn't change the
// decoded structure.
func SHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &MissingError{Path: path}
		}
		return "", fmt.Errorf("opening policy %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing policy %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsAllowed reports whether command's first whitespace-separated token is
// an exact member of the policy's allowlist.
func (p *Policy) IsAllowed(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	_, ok := p.allowedSet()[fields[0]]
	return ok
}
