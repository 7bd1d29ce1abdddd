package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Overlay is an optional supplementary rule layer evaluated with OPA on top
// of the spec-mandated exact-match allowlist. The allowlist remains
// authoritative: an Overlay can only add additional deny reasons for a
// command the allowlist already permits, never grant an allowlist miss.
// An Overlay with no loaded Rego modules always permits.
type Overlay struct {
	query    rego.PreparedEvalQuery
	hasRules bool
}

// LoadOverlay compiles every ".rego" file under dir into a single prepared
// query. dir may not exist or may be empty, in which case the returned
// Overlay permits everything.
func LoadOverlay(ctx context.Context, dir string) (*Overlay, error) {
	modules, err := findRegoFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("finding rego overlay files in %s: %w", dir, err)
	}
	if len(modules) == 0 {
		return &Overlay{}, nil
	}

	opts := []func(*rego.Rego){rego.Query("data.curudroid.deny")}
	for name, src := range modules {
		opts = append(opts, rego.Module(name, src))
	}

	pq, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing policy overlay query: %w", err)
	}
	return &Overlay{query: pq, hasRules: true}, nil
}

// Deny evaluates the overlay against command. It returns true with a
// human-readable reason if any overlay rule denies it.
func (o *Overlay) Deny(ctx context.Context, command string) (bool, string, error) {
	if o == nil || !o.hasRules {
		return false, "", nil
	}

	rs, err := o.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"command": strings.Fields(command),
	}))
	if err != nil {
		return false, "", fmt.Errorf("evaluating policy overlay: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, "", nil
	}

	switch deny := rs[0].Expressions[0].Value.(type) {
	case []interface{}:
		if len(deny) == 0 {
			return false, "", nil
		}
		reasons := make([]string, 0, len(deny))
		for _, r := range deny {
			reasons = append(reasons, fmt.Sprint(r))
		}
		return true, strings.Join(reasons, "; "), nil
	default:
		return false, "", nil
	}
}

// findRegoFiles discovers every ".rego" file under dir, keyed by path
// relative to dir. A missing directory yields no modules rather than an
// error, since the overlay is optional.
func findRegoFiles(dir string) (map[string]string, error) {
	files := make(map[string]string)
	if dir == "" {
		return files, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return files, nil
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".rego") {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("reading %s: %w", path, readErr)
		}
		rel, _ := filepath.Rel(dir, path)
		files[rel] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
