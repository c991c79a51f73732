package store

import (
	"path"
	"strings"

	"github.com/smallbiznis/narzo/internal/storage/domain"
)

// CleanKey normalises an object key and rejects keys that escape the root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", domain.ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return "", domain.ErrInvalidKey
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." || strings.HasSuffix(key, "/") {
		return "", domain.ErrInvalidKey
	}
	return cleaned, nil
}
