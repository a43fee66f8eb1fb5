package schema

import (
	"fmt"
	"strings"

	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/pkg/timefmt"
)

// UserAttributes is the wire form of a user snapshot nested in a log entry.
// Timestamps stay strings until validation has confirmed the layout.
type UserAttributes struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// LogEntry is the wire form of an activity log record. It is used both when
// emitting logs and when accepting a replay payload, so an exported sequence
// can be fed back without transformation.
type LogEntry struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Action     string         `json:"action"`
	Attributes UserAttributes `json:"attributes"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

func timestampFormat(field, value string) *FieldError {
	if _, err := timefmt.Parse(value); err != nil {
		return &FieldError{
			Field:   field,
			Rule:    RuleFormat,
			Message: fmt.Sprintf("must match the timestamp layout %s", timefmt.Layout),
		}
	}
	return nil
}

func actionAllowed(field, value string) *FieldError {
	if !domain.Action(value).Valid() {
		return &FieldError{
			Field: field,
			Rule:  RuleAllowed,
			Message: fmt.Sprintf("must be one of %s, %s, %s",
				domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete),
		}
	}
	return nil
}

// ValidateLogEntry runs every check of the activity-log ruleset, nested
// attribute schema included, and returns all violations.
func ValidateLogEntry(e LogEntry) []FieldError {
	var errs []FieldError

	check := func(field, value string, rules ...func(string, string) *FieldError) {
		if err := required(field, value); err != nil {
			errs = append(errs, *err)
			return
		}
		for _, rule := range rules {
			if err := rule(field, value); err != nil {
				errs = append(errs, *err)
				return
			}
		}
	}

	check("id", e.ID, idFormat)
	check("user_id", e.UserID, idFormat)
	check("action", e.Action, actionAllowed)
	check("created_at", e.CreatedAt, timestampFormat)
	check("updated_at", e.UpdatedAt, timestampFormat)

	check("attributes.id", e.Attributes.ID, idFormat)
	check("attributes.email", e.Attributes.Email, emailFormat)
	check("attributes.name", e.Attributes.Name, nameLength)
	check("attributes.created_at", e.Attributes.CreatedAt, timestampFormat)
	check("attributes.updated_at", e.Attributes.UpdatedAt, timestampFormat)

	return errs
}

// EntryError ties a batch index to the violations found on that entry.
type EntryError struct {
	Index  int          `json:"index"`
	Fields []FieldError `json:"errors"`
}

func (e *EntryError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("entry %d: %s", e.Index, strings.Join(parts, "; "))
}

// DecodeLog converts a validated wire entry into its domain form. Call only
// after ValidateLogEntry passed; a malformed timestamp still returns an error
// rather than a zero time.
func DecodeLog(e LogEntry) (domain.ActivityLog, error) {
	createdAt, err := timefmt.Parse(e.CreatedAt)
	if err != nil {
		return domain.ActivityLog{}, err
	}
	updatedAt, err := timefmt.Parse(e.UpdatedAt)
	if err != nil {
		return domain.ActivityLog{}, err
	}
	attrCreatedAt, err := timefmt.Parse(e.Attributes.CreatedAt)
	if err != nil {
		return domain.ActivityLog{}, err
	}
	attrUpdatedAt, err := timefmt.Parse(e.Attributes.UpdatedAt)
	if err != nil {
		return domain.ActivityLog{}, err
	}

	return domain.ActivityLog{
		ID:     e.ID,
		UserID: e.UserID,
		Action: domain.Action(e.Action),
		Attributes: domain.UserSnapshot{
			ID:        e.Attributes.ID,
			Email:     e.Attributes.Email,
			Name:      e.Attributes.Name,
			CreatedAt: attrCreatedAt,
			UpdatedAt: attrUpdatedAt,
		},
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// EncodeLog converts a domain log into its wire form.
func EncodeLog(l domain.ActivityLog) LogEntry {
	return LogEntry{
		ID:     l.ID,
		UserID: l.UserID,
		Action: string(l.Action),
		Attributes: UserAttributes{
			ID:        l.Attributes.ID,
			Email:     l.Attributes.Email,
			Name:      l.Attributes.Name,
			CreatedAt: timefmt.Format(l.Attributes.CreatedAt),
			UpdatedAt: timefmt.Format(l.Attributes.UpdatedAt),
		},
		CreatedAt: timefmt.Format(l.CreatedAt),
		UpdatedAt: timefmt.Format(l.UpdatedAt),
	}
}
