package lookup

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Glossary is an in-memory word list, typically loaded from YAML:
//
//	source: fr
//	target: en
//	entries:
//	  bonjour: hello
//	  l'été: the summer
type Glossary struct {
	source  string
	target  string
	entries map[string]string
}

type glossaryFile struct {
	Source  string            `yaml:"source"`
	Target  string            `yaml:"target"`
	Entries map[string]string `yaml:"entries"`
}

// NewGlossary builds a glossary. Keys are folded the same way the tokenizer
// normalizes words, so "Bonjour" and "bonjour" collide.
func NewGlossary(source, target string, entries map[string]string) *Glossary {
	g := &Glossary{
		source:  source,
		target:  target,
		entries: make(map[string]string, len(entries)),
	}
	for k, v := range entries {
		key := glossaryKey(k)
		if key == "" {
			continue
		}
		g.entries[key] = v
	}
	return g
}

// LoadGlossary reads a YAML glossary from path.
func LoadGlossary(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}

	var f glossaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse glossary %s: %w", path, err)
	}

	return NewGlossary(f.Source, f.Target, f.Entries), nil
}

func (g *Glossary) Name() string { return "glossary" }

// Len returns the number of entries.
func (g *Glossary) Len() int { return len(g.entries) }

// Languages returns the pair declared by the glossary file, which may be empty.
func (g *Glossary) Languages() (source, target string) { return g.source, g.target }

// Translate looks up req.Word. The sentence context is not consulted.
func (g *Glossary) Translate(_ context.Context, req Request) (string, error) {
	if g.target != "" && req.Target != "" && !strings.EqualFold(g.target, req.Target) {
		return "", fmt.Errorf("%w: glossary targets %s, not %s", ErrNotFound, g.target, req.Target)
	}
	if v, ok := g.entries[glossaryKey(req.Word)]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

// glossaryKey lower-cases w and folds the curly apostrophe into the straight one.
func glossaryKey(w string) string {
	w = strings.TrimSpace(w)
	w = strings.ReplaceAll(w, "’", "'")
	return cases.Lower(language.Und).String(w)
}
