package domain

import "time"

// User is a record in the mutable user collection. IDs are assigned once and
// never change; UpdatedAt is refreshed on every mutation.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSnapshot is a full copy of a user's fields at a point in time. Activity
// log entries embed one per mutation; replay rebuilds users from them.
type UserSnapshot struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot captures the user's current field values.
func Snapshot(u User) UserSnapshot {
	return UserSnapshot{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Restore builds the user a snapshot describes, timestamps included.
func (s UserSnapshot) Restore() User {
	return User{
		ID:        s.ID,
		Email:     s.Email,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
