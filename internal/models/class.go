package models

import "strings"

// ClassLevel is the cohort a teacher or student belongs to, e.g. SS1.
type ClassLevel string

// DefaultClassLevels are used when no class levels are configured.
var DefaultClassLevels = []ClassLevel{"SS1", "SS2", "SS3"}

// ParseClassLevels normalises configured class level names.
func ParseClassLevels(raw []string) []ClassLevel {
	if len(raw) == 0 {
		return append([]ClassLevel(nil), DefaultClassLevels...)
	}
	levels := make([]ClassLevel, 0, len(raw))
	for _, r := range raw {
		if trimmed := strings.ToUpper(strings.TrimSpace(r)); trimmed != "" {
			levels = append(levels, ClassLevel(trimmed))
		}
	}
	return levels
}

// Term identifies one of the three grading periods of a session.
type Term string

const (
	TermFirst  Term = "1"
	TermSecond Term = "2"
	TermThird  Term = "3"
)

// Label returns the human readable term name.
func (t Term) Label() string {
	switch t {
	case TermFirst:
		return "First Term"
	case TermSecond:
		return "Second Term"
	case TermThird:
		return "Third Term"
	default:
		return string(t)
	}
}
