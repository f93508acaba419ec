// Package rowset enforces the all-or-nothing rule on repeatable sub-form rows
// such as accident history. A row is either fully filled in or fully blank;
// blank rows are dropped before the payload leaves the dashboard.
package rowset

import (
	"fmt"
	"strings"

	"driverdesk/internal/onboarding/staging"
	dErrors "driverdesk/pkg/domain-errors"
)

// Row is one entry of a repeatable sub-form.
type Row map[string]any

// Group describes a repeatable sub-form: the payload field holding its rows,
// the label used in messages and the fields every row must carry.
type Group struct {
	Field  string
	Label  string
	Fields []string
}

// Standard row groups of the accidents-convictions section.
var (
	Accidents = Group{
		Field:  "accidents",
		Label:  "Accident",
		Fields: []string{"date", "natureOfAccident", "fatalities", "injuries"},
	}
	TrafficConvictions = Group{
		Field:  "trafficConvictions",
		Label:  "Traffic conviction",
		Fields: []string{"date", "location", "charge", "penalty"},
	}
	CriminalRecords = Group{
		Field:  "criminalRecords",
		Label:  "Criminal record",
		Fields: []string{"offense", "dateOfSentence", "courtLocation"},
	}
)

// SafetyGroups are validated together on the accidents-convictions section.
var SafetyGroups = []Group{Accidents, TrafficConvictions, CriminalRecords}

// Rows pairs a group with the rows submitted for it.
type Rows struct {
	Group Group
	Rows  []Row
}

// IsBlank reports whether a value counts as not filled in.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case *string:
		return t == nil || strings.TrimSpace(*t) == ""
	default:
		return false
	}
}

// IsEmpty reports whether every tracked field of row is blank.
func (g Group) IsEmpty(row Row) bool {
	for _, f := range g.Fields {
		if !IsBlank(row[f]) {
			return false
		}
	}
	return true
}

// IsComplete reports whether every tracked field of row is filled in.
func (g Group) IsComplete(row Row) bool {
	for _, f := range g.Fields {
		if IsBlank(row[f]) {
			return false
		}
	}
	return true
}

// Validate checks every group in order and reports the first partially
// filled row, numbered from 1. Empty rows pass; Prune removes them.
func Validate(sets ...Rows) error {
	for _, set := range sets {
		for i, row := range set.Rows {
			if set.Group.IsEmpty(row) || set.Group.IsComplete(row) {
				continue
			}
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("%s row %d: complete all fields", set.Group.Label, i+1))
		}
	}
	return nil
}

// Prune returns a new slice without empty rows. Call it only after Validate.
func (g Group) Prune(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if g.IsEmpty(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// FromValue reads rows from a decoded JSON array. Non-object items become
// empty rows. ok is false when v is neither nil nor an array.
func FromValue(v any) (rows []Row, ok bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case []Row:
		return append([]Row(nil), t...), true
	case []map[string]any:
		rows = make([]Row, len(t))
		for i, m := range t {
			rows[i] = Row(m)
		}
		return rows, true
	case []any:
		rows = make([]Row, len(t))
		for i, item := range t {
			if m, isMap := item.(map[string]any); isMap {
				rows[i] = Row(m)
			} else {
				rows[i] = Row{}
			}
		}
		return rows, true
	default:
		return nil, false
	}
}

func toValue(rows []Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = map[string]any(r)
	}
	return out
}

// Prepare adapts validate-then-prune to a staging commit. Groups whose field
// is absent from the payload are skipped.
func Prepare(groups ...Group) staging.PrepareFunc {
	return func(merged staging.Fields) (staging.Fields, error) {
		sets := make([]Rows, 0, len(groups))
		for _, g := range groups {
			raw, present := merged[g.Field]
			if !present {
				continue
			}
			rows, ok := FromValue(raw)
			if !ok {
				return nil, dErrors.Newf(dErrors.CodeValidation, "%s rows must be a list", g.Label)
			}
			sets = append(sets, Rows{Group: g, Rows: rows})
		}
		if err := Validate(sets...); err != nil {
			return nil, err
		}

		out := merged.Clone()
		for _, set := range sets {
			out[set.Group.Field] = toValue(set.Group.Prune(set.Rows))
		}
		return out, nil
	}
}
