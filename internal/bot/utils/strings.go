package utils

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// TruncateString shortens s to at most maxLength bytes, ending in "..." when
// cut. Cuts never split a multi-byte character.
func TruncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}

	if maxLength <= 3 {
		return "..."[:max(maxLength, 0)]
	}

	cut := maxLength - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}

// GetTimestampedSubtext formats message as Discord subtext followed by a
// relative timestamp of now.
func GetTimestampedSubtext(message string) string {
	return TimestampedSubtext(message, time.Now())
}

// TimestampedSubtext formats message as Discord subtext followed by a
// relative timestamp of at.
func TimestampedSubtext(message string, at time.Time) string {
	if message == "" {
		return ""
	}
	return fmt.Sprintf("-# `%s` <t:%d:R>", message, at.Unix())
}
