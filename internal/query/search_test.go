package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"confcentral/internal/domain"
)

func TestComposeSessionSearch(t *testing.T) {
	qs, err := ComposeSessionSearch(SessionSearchSpec{
		BeforeTime:   "14:00",
		AfterTime:    "09:00",
		ExcludeTypes: []string{"Workshop", "Key-note!"},
		IncludeTypes: []string{"Lecture"},
		Highlights:   "generics",
		General:      "cloud native",
	})
	require.NoError(t, err)
	require.Equal(t, "+startTime:<840 +startTime:>540 -type:Workshop -type:Key -type:note type:Lecture highlights:generics cloud native", qs)
}

func TestComposeSessionSearchCaps(t *testing.T) {
	tests := []struct {
		name string
		spec SessionSearchSpec
	}{
		{"too many excludes", SessionSearchSpec{ExcludeTypes: []string{"a", "b", "c", "d"}}},
		{"too many includes", SessionSearchSpec{IncludeTypes: []string{"a", "b", "c", "d"}}},
		{"long highlights", SessionSearchSpec{Highlights: strings.Repeat("x", 51)}},
		{"long general", SessionSearchSpec{General: strings.Repeat("x", 51)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComposeSessionSearch(tt.spec)
			require.True(t, errors.Is(err, domain.ErrQueryTooComplex))
			require.True(t, errors.Is(err, domain.ErrBadRequest))
		})
	}
}

func TestComposeSessionSearchOverlappingTags(t *testing.T) {
	_, err := ComposeSessionSearch(SessionSearchSpec{
		ExcludeTypes: []string{"Workshop"},
		IncludeTypes: []string{"Workshop"},
	})
	require.True(t, errors.Is(err, domain.ErrInvalidFilter))
}

func TestComposeSessionSearchBadTime(t *testing.T) {
	_, err := ComposeSessionSearch(SessionSearchSpec{BeforeTime: "25:70"})
	require.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestComposeSessionSearchEmptySpec(t *testing.T) {
	qs, err := ComposeSessionSearch(SessionSearchSpec{})
	require.NoError(t, err)
	require.Equal(t, "", qs)
}
