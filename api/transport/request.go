package transport

import "github.com/auditrail/backend/internal/schema"

type UserCreateRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserUpdateRequest uses pointers so an absent field can be told apart from
// an empty one; absent fields are left unchanged.
type UserUpdateRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

// ReplayRequest wraps the submitted log sequence. Logs is a pointer so a
// missing "logs" key is rejected while an explicitly empty list triggers a
// wipe.
type ReplayRequest struct {
	Logs *[]schema.LogEntry `json:"logs"`
}

type TokenRequest struct {
	AdminKey string `json:"admin_key"`
}
