// Package testutil provides shared fixtures and skip helpers for tests.
//
// Skip helpers call t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestRemoteTranslator(t *testing.T) {
//	    endpoint := testutil.RequireEndpoint(t)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// EndpointEnv names the variable pointing integration tests at a live
// translation endpoint.
const EndpointEnv = "WORDLENS_TEST_ENDPOINT"

// RequireEndpoint skips the test unless EndpointEnv is set and returns its
// value.
func RequireEndpoint(tb testing.TB) string {
	tb.Helper()

	endpoint := os.Getenv(EndpointEnv)
	if endpoint == "" {
		tb.Skipf("no translation endpoint configured; set %s to run", EndpointEnv)
	}
	return endpoint
}

type glossaryFixture struct {
	Source  string            `yaml:"source,omitempty"`
	Target  string            `yaml:"target,omitempty"`
	Entries map[string]string `yaml:"entries"`
}

// WriteGlossary writes a glossary YAML file into a per-test temp dir and
// returns its path.
func WriteGlossary(tb testing.TB, source, target string, entries map[string]string) string {
	tb.Helper()

	b, err := yaml.Marshal(glossaryFixture{Source: source, Target: target, Entries: entries})
	if err != nil {
		tb.Fatalf("marshal glossary: %v", err)
	}

	path := filepath.Join(tb.TempDir(), "glossary.yaml")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		tb.Fatalf("write glossary: %v", err)
	}
	return path
}
