package mcpconn

import (
	"sort"
	"strings"
)

// setHeader writes a header value using case-insensitive key matching,
// replacing an equivalent key with different casing.
func setHeader(headers map[string]string, name, value string) map[string]string {
	name = strings.TrimSpace(name)
	if name == "" {
		return headers
	}

	if headers == nil {
		headers = make(map[string]string, 1)
	}
	if existing, ok := lookupKeyFold(headers, name); ok && existing != name {
		delete(headers, existing)
	}
	headers[name] = value
	return headers
}

// mergeHeaders applies overrides into base using case-insensitive key
// matching; override entries replace base keys even when the casing differs.
func mergeHeaders(base, overrides map[string]string) map[string]string {
	if len(overrides) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]string, len(overrides))
	}

	// Sorted iteration keeps the winner deterministic when overrides
	// themselves collide case-insensitively.
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		base = setHeader(base, key, overrides[key])
	}
	return base
}

func lookupKeyFold(headers map[string]string, name string) (string, bool) {
	for key := range headers {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return key, true
		}
	}
	return "", false
}
