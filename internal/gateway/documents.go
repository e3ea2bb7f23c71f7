package gateway

import (
	"bytes"
	"strings"
)

// IsEmptyDocument reports whether a fetched document carries no usable
// content: nothing, JSON null, or an empty object/array.
func IsEmptyDocument(doc []byte) bool {
	trimmed := strings.TrimSpace(string(doc))
	if trimmed == "" || trimmed == "null" {
		return true
	}

	compact := []byte(trimmed)
	compact = bytes.Join(bytes.Fields(compact), nil)

	return string(compact) == "{}" || string(compact) == "[]"
}
