package domain

import (
	"regexp"
	"strings"
)

var (
	namePattern    = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,30}[a-z0-9])?$`)
	addressPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	queryStrip     = regexp.MustCompile(`[^a-z0-9-]`)
)

// Handle length bounds. The regexp alone would admit a single character, so
// the length check runs first.
const (
	MinNameLen = 3
	MaxNameLen = 32
)

// Address length bounds.
const (
	MinAddressLen = 32
	MaxAddressLen = 64
)

// NormalizeName lowercases a raw handle and strips one trailing display
// suffix if present. It is idempotent: normalizing an already-normalized
// name is a no-op.
func NormalizeName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimSuffix(name, DisplaySuffix)
}

// IsValidName reports whether a candidate handle is well-formed after
// normalization: 3-32 chars, lowercase alphanumerics and hyphens, no
// leading/trailing hyphen, no consecutive hyphens.
//
// The input must already be normalized; uppercase input is rejected, not
// auto-lowered.
func IsValidName(name string) bool {
	if len(name) < MinNameLen || len(name) > MaxNameLen {
		return false
	}
	if strings.Contains(name, "--") {
		return false
	}
	return namePattern.MatchString(name)
}

// IsValidAddress reports whether an address is well-formed: 32-64
// alphanumeric characters.
func IsValidAddress(address string) bool {
	if len(address) < MinAddressLen || len(address) > MaxAddressLen {
		return false
	}
	return addressPattern.MatchString(address)
}

// SanitizeMetadata filters raw metadata down to the allow-listed string
// fields (description, avatar, website, email), each capped at 256 chars.
// Unknown fields are silently dropped. Returns nil when nothing survives,
// never an empty map.
func SanitizeMetadata(raw map[string]any) map[string]string {
	if raw == nil {
		return nil
	}

	allowed := []string{MetaDescription, MetaAvatar, MetaWebsite, MetaEmail}
	out := make(map[string]string, len(allowed))
	for _, key := range allowed {
		value, ok := raw[key]
		if !ok {
			continue
		}
		s, ok := value.(string)
		if !ok || len(s) > MaxMetadataValueLen {
			continue
		}
		out[key] = s
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// SanitizeSearchQuery lowercases a query and strips every character outside
// [a-z0-9-]. Callers reject queries that collapse below two characters.
func SanitizeSearchQuery(raw string) string {
	return queryStrip.ReplaceAllString(strings.ToLower(raw), "")
}
