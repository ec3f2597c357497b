package logutil

import (
	"strings"
	"unicode/utf8"
)

// IsSensitiveLogField returns true when a key likely contains sensitive data.
func IsSensitiveLogField(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")

	switch {
	case normalized == "authorization":
		return true
	case strings.Contains(normalized, "token"):
		return true
	case strings.Contains(normalized, "secret"):
		return true
	case strings.Contains(normalized, "password"), strings.Contains(normalized, "passwd"):
		return true
	case strings.Contains(normalized, "apikey"), strings.Contains(normalized, "accesskey"):
		return true
	case strings.Contains(normalized, "cookie"):
		return true
	default:
		return false
	}
}

// RedactValue redacts a value when the key looks sensitive.
func RedactValue(key, value string) string {
	if IsSensitiveLogField(key) {
		return "[REDACTED]"
	}
	return value
}

// MaskEmail keeps the first character of the local part and the domain.
// Non-email input is truncated instead, since typed payloads may be arbitrary.
func MaskEmail(value string) string {
	at := strings.LastIndex(value, "@")
	if at <= 0 || at == len(value)-1 {
		return TruncateForLog(value, 32)
	}
	_, first := utf8.DecodeRuneInString(value)
	return value[:first] + "***" + value[at:]
}

// TruncateForLog returns a single-line truncated preview for unstructured values.
// maxChars counts runes, so multi-byte characters are never split.
func TruncateForLog(value string, maxChars int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	normalized := strings.ReplaceAll(trimmed, "\n", "\\n")
	if maxChars <= 0 || utf8.RuneCountInString(normalized) <= maxChars {
		return normalized
	}
	cut, n := 0, 0
	for i := range normalized {
		if n == maxChars {
			cut = i
			break
		}
		n++
	}
	return normalized[:cut] + "... [truncated]"
}
