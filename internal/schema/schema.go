// Package schema declares the wire shapes and validation rulesets for the two
// record kinds, user and activity log. Each ruleset is an explicit set of
// named field checks composed into a validate function that returns every
// violation, not just the first.
package schema

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Rule names reported alongside field violations.
const (
	RuleRequired  = "required"
	RuleFormat    = "format"
	RuleMinLength = "min_length"
	RuleAllowed   = "allowed"
)

const nameMinLength = 2

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
	// Lowercase UUID text layout with the version nibble restricted to 1, 3,
	// 4 or 5. Replay payloads must match it even for caller-supplied IDs.
	idPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1345][a-f0-9]{3}-[a-f0-9]{4}-[a-f0-9]{12}$`)
)

// FieldError is a single rule violation on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func required(field, value string) *FieldError {
	if value == "" {
		return &FieldError{Field: field, Rule: RuleRequired, Message: "is required"}
	}
	return nil
}

func emailFormat(field, value string) *FieldError {
	if !emailPattern.MatchString(value) {
		return &FieldError{Field: field, Rule: RuleFormat, Message: "is not a valid email address"}
	}
	return nil
}

func nameLength(field, value string) *FieldError {
	if utf8.RuneCountInString(value) < nameMinLength {
		return &FieldError{
			Field:   field,
			Rule:    RuleMinLength,
			Message: fmt.Sprintf("must be at least %d characters long", nameMinLength),
		}
	}
	return nil
}

func idFormat(field, value string) *FieldError {
	if !idPattern.MatchString(value) {
		return &FieldError{Field: field, Rule: RuleFormat, Message: "is not a valid identifier"}
	}
	return nil
}

// ValidateNewUser checks a user creation payload: both fields required, email
// pattern, name minimum length.
func ValidateNewUser(email, name string) []FieldError {
	var errs []FieldError
	if err := required("email", email); err != nil {
		errs = append(errs, *err)
	} else if err := emailFormat("email", email); err != nil {
		errs = append(errs, *err)
	}
	if err := required("name", name); err != nil {
		errs = append(errs, *err)
	} else if err := nameLength("name", name); err != nil {
		errs = append(errs, *err)
	}
	return errs
}

// ValidateUserPatch checks a partial update. Nil fields are untouched and
// skip validation entirely; supplied fields face the same checks as creation.
func ValidateUserPatch(email, name *string) []FieldError {
	var errs []FieldError
	if email != nil {
		if err := emailFormat("email", *email); err != nil {
			errs = append(errs, *err)
		}
	}
	if name != nil {
		if err := nameLength("name", *name); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}
