package masking

import "strings"

const maskToken = "****"

// MaskSecret redacts a secret while keeping a minimal suffix for auditing.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	prefix, remainder := splitPrefix(trimmed)
	if len(remainder) <= 4 {
		return prefix + maskToken
	}

	return prefix + maskToken + remainder[len(remainder)-4:]
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	at := strings.LastIndex(trimmed, "@")
	if at <= 0 || at == len(trimmed)-1 {
		return MaskSecret(trimmed)
	}
	return trimmed[:1] + maskToken + trimmed[at:]
}

// MaskPhone keeps the last three digits.
func MaskPhone(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) <= 3 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-3:]
}

var secretKeys = []string{"token", "secret", "password", "api_key", "signature"}

// Metadata returns a copy of m with customer contact details and secrets
// masked. Only string values are touched; empty keys are dropped.
func Metadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if key == "" {
			continue
		}
		s, ok := value.(string)
		if !ok {
			out[key] = value
			continue
		}
		lower := strings.ToLower(key)
		switch {
		case strings.Contains(lower, "email"):
			out[key] = MaskEmail(s)
		case strings.Contains(lower, "phone"):
			out[key] = MaskPhone(s)
		case containsAny(lower, secretKeys):
			out[key] = MaskSecret(s)
		default:
			out[key] = s
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func splitPrefix(value string) (string, string) {
	lastUnderscore := strings.LastIndex(value, "_")
	if lastUnderscore == -1 || lastUnderscore == len(value)-1 {
		return "", value
	}
	return value[:lastUnderscore+1], value[lastUnderscore+1:]
}
