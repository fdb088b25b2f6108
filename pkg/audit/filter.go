package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FilterAction defines the action to take on matched metadata fields
type FilterAction string

const (
	FilterActionRemove FilterAction = "remove"
	FilterActionHash   FilterAction = "hash"
	FilterActionMask   FilterAction = "mask"
)

// MetadataFilter scrubs sensitive values from event metadata before storage.
// Keys are matched case-insensitively.
type MetadataFilter struct {
	rules map[string]FilterAction
}

// Fields that must never reach audit storage in clear text.
var defaultSensitiveFields = map[string]FilterAction{
	"code":           FilterActionRemove,
	"totp_code":      FilterActionRemove,
	"recovery_code":  FilterActionRemove,
	"recovery_codes": FilterActionRemove,
	"secret":         FilterActionRemove,
	"totp_secret":    FilterActionRemove,
	"password":       FilterActionRemove,
	"token":          FilterActionMask,
	"session_token":  FilterActionMask,
	"email":          FilterActionHash,
}

// FilterOption configures MetadataFilter behavior
type FilterOption func(*MetadataFilter)

// WithFilterField adds or overrides the rule for a field
func WithFilterField(field string, action FilterAction) FilterOption {
	return func(f *MetadataFilter) {
		f.rules[strings.ToLower(field)] = action
	}
}

// WithoutFilterField lets a default sensitive field through unchanged
func WithoutFilterField(field string) FilterOption {
	return func(f *MetadataFilter) {
		delete(f.rules, strings.ToLower(field))
	}
}

// NewMetadataFilter creates a filter preloaded with the default sensitive fields
func NewMetadataFilter(opts ...FilterOption) *MetadataFilter {
	f := &MetadataFilter{rules: make(map[string]FilterAction, len(defaultSensitiveFields))}
	for k, v := range defaultSensitiveFields {
		f.rules[k] = v
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Filter returns a copy of metadata with the configured rules applied.
// Nested maps are filtered recursively.
func (f *MetadataFilter) Filter(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}

	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		action, ok := f.rules[strings.ToLower(key)]
		if !ok {
			if nested, isMap := value.(map[string]any); isMap {
				value = f.Filter(nested)
			}
			out[key] = value
			continue
		}

		switch action {
		case FilterActionRemove:
		case FilterActionHash:
			out[key] = hashValue(value)
		case FilterActionMask:
			out[key] = maskValue(value)
		}
	}
	return out
}

func hashValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return "[HASHED]"
	}
	sum := sha256.Sum256([]byte(s))
	return "sha256:" + hex.EncodeToString(sum[:8])
}

func maskValue(v any) string {
	s, ok := v.(string)
	if !ok || len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
