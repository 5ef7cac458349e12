// PassFilter describes user-provided filters to narrow the line history.
package dto

type PassFilter struct {
	SessionID string
	// Emitted restricts results to accepted (true) or suppressed (false) passes.
	Emitted *bool
	Limit   int
	Offset  int
}
