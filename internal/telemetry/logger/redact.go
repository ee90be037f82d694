package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

const (
	redactedValue = "***REDACTED***"

	// MaxValueLen is the longest string value logged verbatim. Longer values,
	// such as echoed PING payloads, are cut and annotated with their size.
	MaxValueLen = 256
)

// Attribute keys containing any of these are masked.
var sensitiveKeyParts = []string{"password", "requirepass", "secret", "token", "credential", "auth"}

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = redactSensitive(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		s := a.Value.String()
		switch {
		case s == "":
			return a
		case sensitiveKey(a.Key):
			return slog.String(a.Key, redactedValue)
		case len(s) > MaxValueLen:
			return slog.String(a.Key, truncate(s, MaxValueLen))
		}
	}
	return a
}

// truncate cuts s to at most max bytes on a UTF-8 boundary and appends the
// original length.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "...(" + strconv.Itoa(len(s)) + " bytes)"
}

func sensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}
