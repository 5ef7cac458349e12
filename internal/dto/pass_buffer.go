package dto

import "time"

// BufferedPass holds a pass result before it is flushed to the database.
type BufferedPass struct {
	SessionID string
	Timestamp time.Time
	RawText   string
	Text      string
	Emitted   bool
	Duration  time.Duration
	Regions   []RegionResult
}

// RegionResult is one recognized region of a buffered pass.
type RegionResult struct {
	X1, Y1, X2, Y2 float64
	Score          float64
	Text           string
	Confidence     float64
}
