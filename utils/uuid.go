// Package utils provides utility functions for the application.
package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ParseUUID is the single normalization boundary for external identifiers.
// Every tenant, campaign, entry, and winner identifier that crosses the HTTP
// or store boundary goes through here, so the rest of the code only ever
// deals with uuid.UUID values.
func ParseUUID(s string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return uuid.Nil, fmt.Errorf("empty identifier")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid identifier %q: %w", trimmed, err)
	}
	return parsed, nil
}
