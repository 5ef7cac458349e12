package dto

import "time"

// LineEvent is an accepted line as delivered to output consumers.
type LineEvent struct {
	SessionID string    `json:"session"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Regions   int       `json:"regions"`
}
