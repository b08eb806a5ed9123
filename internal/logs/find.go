package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir returns the directory holding run logs for stateDir.
func Dir(stateDir string) string {
	return filepath.Join(stateDir, "logs")
}

// Find returns the log file of runID inside dir, or the newest log when runID
// is empty. File names sort chronologically because they start with a UTC
// timestamp.
func Find(dir, runID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "walkthrough-*.log"))
	if err != nil {
		return "", fmt.Errorf("list run logs: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no run logs in %s: %w", dir, os.ErrNotExist)
	}
	sort.Strings(matches)

	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(runID), "-", ""))
	if key == "" {
		return matches[len(matches)-1], nil
	}
	if len(key) > 8 {
		key = key[:8]
	}
	for i := len(matches) - 1; i >= 0; i-- {
		stem := strings.TrimSuffix(filepath.Base(matches[i]), ".log")
		idx := strings.LastIndex(stem, "-")
		if idx >= 0 && strings.HasPrefix(stem[idx+1:], key) {
			return matches[i], nil
		}
	}
	return "", fmt.Errorf("no run log for %q in %s: %w", runID, dir, os.ErrNotExist)
}
