package query

import (
	"fmt"
	"regexp"
	"strings"

	"confcentral/internal/domain"
)

// SessionSearchSpec describes a full-text session search: an optional
// start-time window, up to three excluded and three included type tags,
// and up to two free-text fragments of at most 50 characters each.
type SessionSearchSpec struct {
	BeforeTime   string   `json:"beforeTime,omitempty"`
	AfterTime    string   `json:"afterTime,omitempty"`
	ExcludeTypes []string `json:"excludeTypes,omitempty"`
	IncludeTypes []string `json:"includeTypes,omitempty"`
	Highlights   string   `json:"searchHighlights,omitempty"`
	General      string   `json:"searchGeneral,omitempty"`
}

const (
	maxTypeTags     = 3
	maxFragmentSize = 50
)

var nonWord = regexp.MustCompile(`[^\w']`)

// sanitizeTag strips everything but word characters and apostrophes,
// collapsing the rest to spaces.
func sanitizeTag(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(s, " "))
}

// ComposeSessionSearch validates the search request and builds the index query
// string. Time bounds become integer minute offsets so they compare as
// numbers against the indexed start time. A tag present in both the
// include and exclude lists can never match and is rejected outright.
func ComposeSessionSearch(spec SessionSearchSpec) (string, error) {
	if len(spec.ExcludeTypes) > maxTypeTags || len(spec.IncludeTypes) > maxTypeTags {
		return "", fmt.Errorf("%w: you can only exclude or include max %d types", domain.ErrQueryTooComplex, maxTypeTags)
	}
	if len(spec.Highlights) > maxFragmentSize || len(spec.General) > maxFragmentSize {
		return "", fmt.Errorf("%w: search fragments can only be up to %d characters", domain.ErrQueryTooComplex, maxFragmentSize)
	}

	included := map[string]bool{}
	for _, tag := range spec.IncludeTypes {
		included[sanitizeTag(tag)] = true
	}
	for _, tag := range spec.ExcludeTypes {
		if included[sanitizeTag(tag)] {
			return "", fmt.Errorf("%w: type %q is both included and excluded", domain.ErrInvalidFilter, tag)
		}
	}

	var parts []string
	if spec.BeforeTime != "" {
		minutes, err := domain.TimeToMinutes(spec.BeforeTime)
		if err != nil {
			return "", fmt.Errorf("%w: beforeTime must be formatted like 14:59", domain.ErrBadRequest)
		}
		parts = append(parts, fmt.Sprintf("+startTime:<%d", minutes))
	}
	if spec.AfterTime != "" {
		minutes, err := domain.TimeToMinutes(spec.AfterTime)
		if err != nil {
			return "", fmt.Errorf("%w: afterTime must be formatted like 14:59", domain.ErrBadRequest)
		}
		parts = append(parts, fmt.Sprintf("+startTime:>%d", minutes))
	}
	for _, tag := range spec.ExcludeTypes {
		for _, word := range strings.Fields(sanitizeTag(tag)) {
			parts = append(parts, "-type:"+word)
		}
	}
	for _, tag := range spec.IncludeTypes {
		for _, word := range strings.Fields(sanitizeTag(tag)) {
			parts = append(parts, "type:"+word)
		}
	}
	for _, word := range strings.Fields(sanitizeTag(spec.Highlights)) {
		parts = append(parts, "highlights:"+word)
	}
	for _, word := range strings.Fields(sanitizeTag(spec.General)) {
		parts = append(parts, word)
	}

	return strings.Join(parts, " "), nil
}
