package dto

import "time"

// SessionStatus is a point-in-time snapshot of a running session.
type SessionStatus struct {
	ID         string    `json:"id"`
	Phase      string    `json:"phase"`
	Stable     int       `json:"stable"`
	Busy       bool      `json:"busy"`
	Paused     bool      `json:"paused"`
	Passes     int64     `json:"passes"`
	Emitted    int64     `json:"emitted"`
	LastLine   string    `json:"lastLine"`
	LastPassAt time.Time `json:"lastPassAt"`
}
