package session

import "strings"

// ValidationError reports missing or unusable start-of-session input.
// It blocks the transition to Recording and is meant for the operator.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "cannot start session: invalid " + strings.Join(e.Fields, ", ")
}
