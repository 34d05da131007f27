package model

import "strings"

// ParseSpecialties splits a comma separated list, trimming entries and
// dropping empty ones.
func ParseSpecialties(raw string) []string {
	out := make([]string, 0)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
