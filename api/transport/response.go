package transport

import (
	"encoding/json"

	"github.com/auditrail/backend/domain"
	"github.com/auditrail/backend/internal/schema"
	"github.com/auditrail/backend/pkg/timefmt"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
	}
}

// NewError returns an error envelope.
func NewError(code string, err interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// UserPayload is a user rendered with wire-format timestamps.
type UserPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewUserPayload(u domain.User) UserPayload {
	return UserPayload{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: timefmt.Format(u.CreatedAt),
		UpdatedAt: timefmt.Format(u.UpdatedAt),
	}
}

// UserListPayload mirrors the shape consumers export and re-import.
type UserListPayload struct {
	Users []UserPayload `json:"users"`
}

func NewUserListPayload(users []domain.User) UserListPayload {
	payload := UserListPayload{Users: make([]UserPayload, 0, len(users))}
	for _, u := range users {
		payload.Users = append(payload.Users, NewUserPayload(u))
	}
	return payload
}

// LogListPayload carries log entries in the same shape replay accepts, so a
// listing can be fed straight back into /logs/replay.
type LogListPayload struct {
	Logs []schema.LogEntry `json:"logs"`
}

func NewLogListPayload(logs []domain.ActivityLog) LogListPayload {
	payload := LogListPayload{Logs: make([]schema.LogEntry, 0, len(logs))}
	for _, l := range logs {
		payload.Logs = append(payload.Logs, schema.EncodeLog(l))
	}
	return payload
}

// TokenPayload is the response to a successful admin token request.
type TokenPayload struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}
