package models

import (
	"fmt"
	"strings"
)

// RequiredFieldsMessage is the alert shown when a form misses required fields.
const RequiredFieldsMessage = "Please fill in all required fields."

// ValidationError lists required fields that were left empty.
type ValidationError struct {
	Fields []string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.Fields) == 0 {
		return "validation failed"
	}
	return "missing required fields: " + strings.Join(v.Fields, ", ")
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

func (v *ValidationError) Require(field string, present bool) {
	if !present {
		v.Fields = append(v.Fields, field)
	}
}

// Err returns v as an error, or nil when nothing is missing.
func (v *ValidationError) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

// PartialJoinError reports a reference that did not resolve. The view
// degrades to a placeholder instead of failing.
type PartialJoinError struct {
	Kind string
	ID   ID
	Err  error
}

func (p *PartialJoinError) Error() string {
	return fmt.Sprintf("%s %s did not resolve: %v", p.Kind, p.ID, p.Err)
}

func (p *PartialJoinError) Unwrap() error {
	return p.Err
}
