package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeSpaces collapses whitespace runs (including NBSP) and trims.
func NormalizeSpaces(input string) string {
	s := strings.ReplaceAll(input, "\u00a0", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// NormalizeHeader prepares a column header for matching.
func NormalizeHeader(input string) string {
	s := strings.TrimPrefix(input, "\ufeff")
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.ToLower(NormalizeSpaces(s))
}

// FindColumn returns the index of the header equal to probe, else the first
// header containing it, else -1. Both sides go through NormalizeHeader.
func FindColumn(headers []string, probe string) int {
	p := NormalizeHeader(probe)
	if p == "" {
		return -1
	}
	for i, h := range headers {
		if NormalizeHeader(h) == p {
			return i
		}
	}
	for i, h := range headers {
		if strings.Contains(NormalizeHeader(h), p) {
			return i
		}
	}
	return -1
}

func PickCell(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	return ""
}

func DerefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
