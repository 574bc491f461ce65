package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length limits for client-controlled values written to logs.
const (
	MaxPathLength          = 500
	MaxOriginLength        = 256
	MaxIPLength            = 64
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
)

const truncationMarker = "..."

// SanitizeString makes a client-supplied string safe to log. Invalid UTF-8 and
// non-printable runes (newlines included, so one request cannot forge a second
// log line) are dropped, and the result is cut to at most maxLength bytes on a
// rune boundary.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}

	s = strings.Map(func(r rune) rune {
		if r == utf8.RuneError || !(unicode.IsPrint(r) || r == '\t') {
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, ""))

	if len(s) <= maxLength {
		return s
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}

// SanitizePath sanitizes a URL path for safe logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeOrigin sanitizes an Origin header value for safe logging
func SanitizeOrigin(origin string) string {
	return SanitizeString(origin, MaxOriginLength)
}

// SanitizeIP sanitizes a client address, which may come from X-Forwarded-For.
func SanitizeIP(ip string) string {
	return SanitizeString(ip, MaxIPLength)
}

// SanitizeError sanitizes an error message for safe logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}
