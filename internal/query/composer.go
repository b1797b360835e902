// Package query turns caller-supplied filter lists into store queries and
// search-index query strings, enforcing the store's restrictions before a
// query is ever executed.
package query

import (
	"fmt"
	"sort"
	"strconv"

	"confcentral/internal/domain"
)

// FilterSpec is one caller-supplied (field, operator, value) triple.
type FilterSpec struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Conference fields open to filtering, and which of them are numeric.
var conferenceFields = map[string]bool{
	"city":         false,
	"topics":       false,
	"month":        true,
	"maxAttendees": true,
}

// Fields that may never carry an inequality comparison.
var equalityOnlyFields = map[string]bool{
	"city":   true,
	"topics": true,
}

var operators = map[string]bool{
	domain.OpEqual:        true,
	domain.OpGreater:      true,
	domain.OpGreaterEqual: true,
	domain.OpLess:         true,
	domain.OpLessEqual:    true,
	domain.OpNotEqual:     true,
}

// ComposeConferenceQuery validates the filter list and produces an ordered
// conference query. The store allows at most one field with an inequality
// comparison and requires that field to be the primary sort key, so the
// composer picks the ordering rather than the caller.
func ComposeConferenceQuery(specs []FilterSpec) (domain.Query, error) {
	var (
		inequalityField string
		seen            = map[string]bool{}
		filters         []domain.Filter
	)

	for _, spec := range specs {
		if _, known := conferenceFields[spec.Field]; !known {
			return domain.Query{}, domain.ErrInvalidFilter
		}
		if !operators[spec.Operator] {
			return domain.Query{}, domain.ErrInvalidFilter
		}

		if spec.Operator != domain.OpEqual {
			if inequalityField != "" && inequalityField != spec.Field {
				return domain.Query{}, domain.ErrMultipleInequalityFields
			}
			if equalityOnlyFields[spec.Field] {
				return domain.Query{}, domain.ErrInequalityNotAllowed
			}
			inequalityField = spec.Field
		}

		if seen[spec.Field] {
			return domain.Query{}, fmt.Errorf("%w: %s", domain.ErrDuplicateField, spec.Field)
		}
		seen[spec.Field] = true

		var value any = spec.Value
		if conferenceFields[spec.Field] {
			n, err := strconv.Atoi(spec.Value)
			if err != nil {
				return domain.Query{}, fmt.Errorf("%w: %s expects a number", domain.ErrInvalidFilter, spec.Field)
			}
			value = n
		}
		filters = append(filters, domain.Filter{Field: spec.Field, Op: spec.Operator, Value: value})
	}

	// Equality filters apply in any order; keep them deterministic.
	sort.SliceStable(filters, func(i, j int) bool { return filters[i].Field < filters[j].Field })

	q := domain.Query{Kind: domain.KindConference, Filters: filters}
	if inequalityField != "" {
		q.Orders = append(q.Orders, domain.Order{Field: inequalityField})
	}
	q.Orders = append(q.Orders, domain.Order{Field: "name"})
	return q, nil
}
