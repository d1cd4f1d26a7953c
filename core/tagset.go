package core

import "strings"

// ParseTagNames splits a comma-separated tag string into names. Tokens are trimmed, empty
// tokens dropped, and duplicates removed keeping the first occurrence. Matching is
// case-sensitive: "Go" and "go" are different tags.
func ParseTagNames(raw string) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, token := range strings.Split(raw, ",") {
		name := strings.TrimSpace(token)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// JoinTagNames is the inverse of ParseTagNames, used to prefill the edit form.
func JoinTagNames(names []string) string {
	return strings.Join(names, ", ")
}
