package domain

import "time"

// Action enumerates the mutations an activity log entry can describe.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// ActivityLog is one append-only audit record: which user was touched, how,
// and a full snapshot of the user's fields immediately after the mutation
// (immediately before removal for a delete).
//
// Entries are immutable once committed. UserID may dangle after the subject
// user is deleted; that is expected, not an integrity violation. The replay
// engine is the only writer allowed to supply its own IDs and timestamps.
type ActivityLog struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	Action     Action       `json:"action"`
	Attributes UserSnapshot `json:"attributes"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
