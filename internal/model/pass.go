package model

import "time"

// Pass represents one completed OCR pass of a session.
type Pass struct {
	ID          int64     `json:"id" db:"id"`
	SessionID   string    `json:"session" db:"session_id"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	RawText     string    `json:"rawText" db:"raw_text"`
	Text        string    `json:"text" db:"text"`
	Emitted     bool      `json:"emitted" db:"emitted"`
	DurationMs  int64     `json:"durationMs" db:"duration_ms"`
	RegionCount int       `json:"regionCount" db:"region_count"`
}

// Region represents a recognized text region of a pass, in frame pixels.
type Region struct {
	ID         int64   `json:"id" db:"id"`
	PassID     int64   `json:"passId" db:"pass_id"`
	X1         float64 `json:"x1" db:"x1"`
	Y1         float64 `json:"y1" db:"y1"`
	X2         float64 `json:"x2" db:"x2"`
	Y2         float64 `json:"y2" db:"y2"`
	Score      float64 `json:"score" db:"score"`
	Text       string  `json:"text" db:"text"`
	Confidence float64 `json:"confidence" db:"confidence"`
}
