package kisan

import (
	"strings"
	"time"
)

// Language is a two-letter UI language code.
type Language string

const (
	// LangEnglish is the source language of all dashboard text.
	LangEnglish Language = "en"
	// LangHindi is the only translation target the dashboard offers.
	LangHindi Language = "hi"
)

const (
	// DefaultExpiry is how long a persisted snapshot stays valid.
	DefaultExpiry = 24 * time.Hour

	// BatchDelimiter joins texts in a batch request.
	BatchDelimiter = "\n---\n"

	// batchSeparator is what a batch response is split on. Models tend to
	// drop the surrounding newlines, so only the dashes are required.
	batchSeparator = "---"

	// SnapshotKey is the storage key of the persisted translation cache.
	SnapshotKey = "translation-cache"

	// PreferenceKey is the storage key of the saved UI language.
	PreferenceKey = "preferred-language"
)

// Key identifies one cached translation.
type Key struct {
	Text string
	Lang Language
}

// String returns the storage form "<text>_<lang>".
func (k Key) String() string {
	return k.Text + "_" + string(k.Lang)
}

// ParseKey splits a storage key on its last underscore.
// Language codes never contain "_", so the split is unambiguous.
func ParseKey(s string) (Key, bool) {
	i := strings.LastIndex(s, "_")
	if i < 0 || i == len(s)-1 {
		return Key{}, false
	}
	return Key{Text: s[:i], Lang: Language(s[i+1:])}, true
}

// Snapshot is the durable form of the translation cache.
type Snapshot struct {
	Entries map[string]string `json:"data"`
	SavedAt int64             `json:"timestamp"` // epoch milliseconds
}

// Expired reports whether the snapshot is at least expiry old at now.
func (s *Snapshot) Expired(now time.Time, expiry time.Duration) bool {
	return now.UnixMilli()-s.SavedAt >= expiry.Milliseconds()
}

// TextNode represents a translatable unit of content.
type TextNode struct {
	ID       string            // Position-based identifier ("node-0", ...)
	Text     string            // Original text content (trimmed)
	NodeType string            // Content type: "html_text"
	Context  string            // Where the text sits in the document
	Metadata map[string]string // Additional info (parent tag, etc.)
}

// ProcessedContent is the result of translating a whole document.
type ProcessedContent struct {
	Content         string // Translated content
	TranslatedCount int    // Number of newly translated items
	CachedCount     int    // Number of cache hits
	FallbackCount   int    // Items left in the source language
	TotalNodes      int    // Total translatable nodes found
}

// IgnoredTags contains HTML tags whose content should not be translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
}
