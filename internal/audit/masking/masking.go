// Package masking redacts candidate contact details before they are stored
// in audit metadata.
package masking

import "strings"

const maskToken = "****"

var sensitiveKeys = map[string]struct{}{
	"email":       {},
	"phone":       {},
	"ctc":         {},
	"annual_ctc":  {},
	"base_salary": {},
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	at := strings.LastIndex(trimmed, "@")
	if at <= 0 {
		return MaskSecret(trimmed)
	}
	return trimmed[:1] + maskToken + trimmed[at:]
}

// MaskSecret redacts a value while keeping a short suffix for correlation.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// RedactMetadata returns a copy with sensitive keys masked at any depth.
func RedactMetadata(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		out[trimmedKey] = redactValue(trimmedKey, value)
	}
	return out
}

func redactValue(key string, value any) any {
	switch cast := value.(type) {
	case map[string]any:
		return RedactMetadata(cast)
	case []any:
		items := make([]any, 0, len(cast))
		for _, item := range cast {
			items = append(items, redactValue(key, item))
		}
		return items
	}

	if !isSensitive(key) {
		return value
	}
	if cast, ok := value.(string); ok {
		masked, _ := RedactField(key, cast)
		return masked
	}
	return maskToken
}

// RedactField masks value when key names a sensitive field. Keys are matched
// case-insensitively and may carry a prefix such as "candidate_email".
func RedactField(key, value string) (string, bool) {
	if !isSensitive(key) {
		return value, false
	}
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(key)), "email") {
		return MaskEmail(value), true
	}
	return MaskSecret(value), true
}

func isSensitive(key string) bool {
	lower := strings.ToLower(strings.TrimSpace(key))
	if _, ok := sensitiveKeys[lower]; ok {
		return true
	}
	for suffix := range sensitiveKeys {
		if strings.HasSuffix(lower, "_"+suffix) {
			return true
		}
	}
	return false
}
