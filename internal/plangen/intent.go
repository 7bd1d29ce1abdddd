package plangen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LoadLatestIntent returns the lexicographically last *.json file in dir,
// matching the original's "sorted(glob).pop()" selection over timestamped
// filenames.
func LoadLatestIntent(dir string) (Intent, string, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return Intent{}, "", fmt.Errorf("listing approved intents: %w", err)
	}
	if len(entries) == 0 {
		return Intent{}, "", fmt.Errorf("no approved intent found in %s", dir)
	}
	sort.Strings(entries)
	latest := entries[len(entries)-1]

	data, err := os.ReadFile(latest)
	if err != nil {
		return Intent{}, "", fmt.Errorf("reading %s: %w", latest, err)
	}
	var intent Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		return Intent{}, "", fmt.Errorf("parsing %s: %w", latest, err)
	}
	return intent, filepath.Base(latest), nil
}
