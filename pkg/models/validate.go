package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTemplate wraps every template validation problem.
var ErrInvalidTemplate = errors.New("invalid template")

// Valid reports whether a is a known allocation type.
func (a AllocationType) Valid() bool {
	return a == AllocationSingle || a == AllocationMultiple
}

// Normalize fills empty display types and allocation type with their defaults.
func (t Template) Normalize() Template {
	if t.AllocationType == "" {
		t.AllocationType = AllocationSingle
	}
	if t.AreaDisplayType == "" {
		t.AreaDisplayType = AreaDisplayTitle
	}
	if t.SessionDisplayType == "" {
		t.SessionDisplayType = SessionDisplayTitle
	}
	if t.StaffDisplayType == "" {
		t.StaffDisplayType = StaffDisplayName
	}
	return t
}

// Validate checks a normalized template. All problems are reported together.
func (t Template) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: %s", ErrInvalidTemplate, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(t.Title) == "" {
		add("title is required")
	}
	if !t.AllocationType.Valid() {
		add("unknown allocation type %q", t.AllocationType)
	}
	if t.AreaDisplayType != AreaDisplayTitle && t.AreaDisplayType != AreaDisplayAlternateName {
		add("unknown area display type %q", t.AreaDisplayType)
	}
	if t.SessionDisplayType != SessionDisplayTitle && t.SessionDisplayType != SessionDisplayTime {
		add("unknown session display type %q", t.SessionDisplayType)
	}
	if t.StaffDisplayType != StaffDisplayName && t.StaffDisplayType != StaffDisplayClass {
		add("unknown staff display type %q", t.StaffDisplayType)
	}

	seen := make(map[string]bool)
	for _, id := range t.StaffIDs {
		if seen[id] {
			add("duplicate staff id %s", id)
		}
		seen[id] = true
	}

	if len(t.Days) > 0 && len(t.Areas) > 0 {
		if want := len(t.Days) * len(t.Areas); len(t.TableShape) != want {
			add("table has %d rows, want %d (days x areas)", len(t.TableShape), want)
		}
	}
	if len(t.Sessions) > 0 {
		for r, row := range t.TableShape {
			if len(row) != len(t.Sessions) {
				add("row %d has %d cells, want %d (sessions)", r, len(row), len(t.Sessions))
			}
		}
	}

	return errors.Join(problems...)
}
