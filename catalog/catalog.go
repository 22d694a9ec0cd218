// Package catalog holds the static UI strings that ship with kisan.
//
// Lookups in a Catalog never reach a translation provider. Keys missing from
// the catalog are translated at runtime by kisan.Localizer.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
)

//go:embed hi.json
var hindiJSON []byte

// Catalog maps a language code to a table of key/string pairs.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]map[string]string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{tables: make(map[string]map[string]string)}
}

// Default returns a catalog preloaded with the bundled Hindi strings.
func Default() *Catalog {
	c := New()
	var entries map[string]string
	if err := json.Unmarshal(hindiJSON, &entries); err != nil {
		panic(fmt.Sprintf("catalog: bundled hi.json: %v", err))
	}
	c.Add("hi", entries)
	return c
}

// Add merges entries into the table for lang. Existing keys are overwritten.
func (c *Catalog) Add(lang string, entries map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, ok := c.tables[lang]
	if !ok {
		table = make(map[string]string, len(entries))
		c.tables[lang] = table
	}
	for k, v := range entries {
		if v != "" {
			table[k] = v
		}
	}
}

// Load reads a flat JSON object of key/string pairs for lang.
func (c *Catalog) Load(lang string, r io.Reader) error {
	var entries map[string]string
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", lang, err)
	}
	c.Add(lang, entries)
	return nil
}

// Lookup returns the static string for key in lang.
func (c *Catalog) Lookup(lang, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.tables[lang][key]
	return v, ok
}

// Len returns the number of keys for lang.
func (c *Catalog) Len(lang string) int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables[lang])
}

// Keys returns the keys for lang in sorted order.
func (c *Catalog) Keys(lang string) []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.tables[lang]))
	for k := range c.tables[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
