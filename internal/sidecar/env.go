package sidecar

import (
	"os"
	"runtime"
	"sort"
	"strings"
)

// MergeEnv returns base (os.Environ() when nil) with every key in overlay
// replaced or added. Overlay keys are appended in sorted order.
func MergeEnv(base []string, overlay map[string]string) []string {
	if base == nil {
		base = os.Environ()
	}

	merged := make([]string, 0, len(base)+len(overlay))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, replaced := lookupKey(overlay, key); replaced {
			continue
		}
		merged = append(merged, kv)
	}

	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		merged = append(merged, k+"="+overlay[k])
	}
	return merged
}

func lookupKey(m map[string]string, key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	if runtime.GOOS != "windows" {
		return "", false
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
