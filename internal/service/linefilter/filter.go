package linefilter

import "fmt"

// Mode selects what a new line is compared against for repeat suppression.
type Mode string

const (
	// ModeLast suppresses a line equal to the most recently accepted one.
	ModeLast Mode = "last"
	// ModeWindow suppresses a line equal to any line still in the history.
	ModeWindow Mode = "window"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLast, ModeWindow:
		return Mode(s), nil
	case "":
		return ModeLast, nil
	}
	return "", fmt.Errorf("unknown dedup mode %q", s)
}

// Filter normalizes recognized text and drops empty lines and repeats.
type Filter struct {
	mode    Mode
	history *History
}

// New creates a Filter with its own history.
func New(mode Mode, capacity int) *Filter {
	if mode != ModeWindow {
		mode = ModeLast
	}
	return &Filter{mode: mode, history: NewHistory(capacity)}
}

// Apply returns the normalized line and true when it should be emitted.
// An accepted line is pushed onto the history.
func (f *Filter) Apply(text string) (string, bool) {
	line := Normalize(text)
	if line == "" {
		return "", false
	}
	if f.repeated(line) {
		return line, false
	}
	f.history.Push(line)
	return line, true
}

func (f *Filter) repeated(line string) bool {
	if f.mode == ModeWindow {
		return f.history.Contains(line)
	}
	last, ok := f.history.Last()
	return ok && last == line
}

func (f *Filter) Mode() Mode { return f.mode }

func (f *Filter) History() *History { return f.history }

// Reset forgets every accepted line.
func (f *Filter) Reset() {
	f.history.Reset()
}
