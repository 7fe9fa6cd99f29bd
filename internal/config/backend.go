package config

import (
	"fmt"
	"strings"
)

const (
	BackendNone     = "none"
	BackendGlossary = "glossary"
	BackendHTTP     = "http"
)

// NormalizeBackend canonicalizes a lookup backend name. Empty selects the
// glossary.
func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendGlossary
	}
	switch backend {
	case BackendNone, BackendGlossary, BackendHTTP:
		return backend, nil
	case "off":
		return BackendNone, nil
	case "dict":
		return BackendGlossary, nil
	case "remote":
		return BackendHTTP, nil
	default:
		return "", fmt.Errorf(
			"invalid lookup backend %q (expected %s|%s|%s)",
			raw,
			BackendNone,
			BackendGlossary,
			BackendHTTP,
		)
	}
}
