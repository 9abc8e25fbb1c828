// Package linefmt provides line framing helpers shared by the bridge and
// its transports.
package linefmt

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxQuoteLen caps agent output quoted inside error messages.
const MaxQuoteLen = 256

var (
	errEmbeddedNewline = errors.New("contains a line break")
	errInvalidUTF8     = errors.New("is not valid UTF-8")
)

// truncateUTF8 caps s at limit bytes, backtracking to a valid UTF-8 boundary.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	end := limit
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// Quote caps s at MaxQuoteLen bytes with UTF-8-safe truncation. An ellipsis
// marks truncated output.
func Quote(s string) string {
	t := truncateUTF8(s, MaxQuoteLen)
	if len(t) < len(s) {
		return t + "..."
	}
	return t
}

// Validate reports whether line can travel as a single protocol unit:
// valid UTF-8 with no embedded CR or LF.
func Validate(line string) error {
	if !utf8.ValidString(line) {
		return errInvalidUTF8
	}
	if strings.ContainsAny(line, "\r\n") {
		return errEmbeddedNewline
	}
	return nil
}

// TrimReply strips trailing whitespace (including the line terminator) from
// a reply. Leading whitespace and everything else is left untouched.
func TrimReply(line string) string {
	return strings.TrimRightFunc(line, unicode.IsSpace)
}
