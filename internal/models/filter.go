package models

import (
	"fmt"
	"strings"
)

type MatchMode string

const (
	// MatchExact keeps an event when one of its category names equals the
	// selected category.
	MatchExact MatchMode = "exact"
	// MatchSubstring keeps an event when the selected category occurs
	// anywhere in its joined category names, so "Art" also matches "Party".
	MatchSubstring MatchMode = "substring"
)

func ParseMatchMode(value string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", MatchExact:
		return MatchExact, nil
	case MatchSubstring:
		return MatchSubstring, nil
	default:
		return "", fmt.Errorf("unknown category match mode %q", value)
	}
}

type Filter struct {
	Search   string
	Category string
}

// NewFilter normalises an empty category to AllCategories.
func NewFilter(search, category string) Filter {
	if category == "" {
		category = AllCategories
	}
	return Filter{Search: search, Category: category}
}

func (f Filter) IsAll() bool {
	return f.Category == "" || f.Category == AllCategories
}
