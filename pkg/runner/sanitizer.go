package runner

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxReplySize bounds a single line of operator input.
const MaxReplySize = 256

var (
	ErrReplyTooLarge = errors.New("reply exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("reply contains invalid UTF-8 sequences")
)

// SanitizeReply trims a line of operator input and strips control characters.
func SanitizeReply(line string) (string, error) {
	if len(line) > MaxReplySize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrReplyTooLarge, len(line), MaxReplySize)
	}
	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}
	clean := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, line)
	return strings.TrimSpace(clean), nil
}

// parseReply maps a sanitized reply to a decision. ok is false when the reply
// is neither yes nor no.
func parseReply(reply string, defaultYes bool) (yes, ok bool) {
	switch strings.ToLower(reply) {
	case "":
		return defaultYes, true
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	}
	return false, false
}
