// Package tokencache memoizes text.Tokenize results keyed on the input text.
package tokencache

import (
	"fmt"
	"slices"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/go-wordlens/internal/text"
)

// DefaultSize is used when New is given a non-positive size.
const DefaultSize = 512

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Len    int    `json:"len"`
}

// Cache is an LRU of tokenizations. It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, []text.Token]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// New returns a cache holding at most size tokenizations.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, []text.Token](size)
	if err != nil {
		return nil, fmt.Errorf("create token cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Tokens returns the tokenization of s, computing it on a miss. The returned
// slice is a copy and may be modified by the caller.
func (c *Cache) Tokens(s string) []text.Token {
	if tokens, ok := c.entries.Get(s); ok {
		c.hits.Add(1)
		return slices.Clone(tokens)
	}

	c.misses.Add(1)
	tokens := text.Tokenize(s)
	c.entries.Add(s, tokens)
	return slices.Clone(tokens)
}

// Stats returns the current hit and miss counters and entry count.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.entries.Len(),
	}
}
