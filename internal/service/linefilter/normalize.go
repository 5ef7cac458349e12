// Package linefilter turns recognized multi-line text into a single normalized
// line and suppresses repeats of recently emitted lines.
package linefilter

import (
	"strings"
	"unicode"
)

const (
	quoteOpen  = "「"
	quoteClose = "」"
	parenOpen  = "（"
	parenClose = "）"

	dashVariant = "―"
	longVowel   = "ー"
)

var flatten = strings.NewReplacer("\r\n", "", "\n", "", "\r", "")

var punctuation = strings.NewReplacer("(", parenOpen, ")", parenClose, dashVariant, longVowel)

// Normalize flattens text to one line and cleans it up: ASCII and whitespace
// runs at either end are stripped, doubled corner brackets collapse, ASCII
// parentheses become full-width, unmatched bracket and parenthesis pairs are
// completed and the horizontal bar becomes a long vowel mark. Normalize is
// idempotent.
func Normalize(text string) string {
	s := flatten.Replace(text)
	s = strings.TrimFunc(s, isChrome)

	for {
		collapsed := strings.ReplaceAll(s, quoteClose+quoteClose, quoteClose)
		collapsed = strings.ReplaceAll(collapsed, quoteOpen+quoteOpen, quoteOpen)
		if collapsed == s {
			break
		}
		s = collapsed
	}

	s = punctuation.Replace(s)
	s = balance(s, quoteOpen, quoteClose)
	s = balance(s, parenOpen, parenClose)

	return strings.TrimSpace(s)
}

// isChrome matches the characters stripped from the ends of a line: ASCII
// (menu labels and other UI text picked up next to the native text) and
// whitespace.
func isChrome(r rune) bool {
	return r <= unicode.MaxASCII || unicode.IsSpace(r)
}

// balance completes a pair when only one side of it is present.
func balance(s, open, close string) string {
	hasOpen := strings.Contains(s, open)
	hasClose := strings.Contains(s, close)
	switch {
	case hasOpen && !hasClose:
		return s + close
	case hasClose && !hasOpen:
		return open + s
	}
	return s
}
