package kisan

import (
	"fmt"
	"strings"
)

// Output token budgets for the two request shapes.
const (
	singleMaxTokens = 1024
	batchMaxTokens  = 2048
)

// BuildSinglePrompt wraps one text in the instruction for lang.
func BuildSinglePrompt(text string, lang Language) string {
	return fmt.Sprintf("Translate the following English text to %s. Only return the translated text, no explanations or additional text:\n\n%s",
		targetDescription(lang), text)
}

// BuildBatchPrompt joins texts with BatchDelimiter and wraps them in the
// batch instruction for lang.
func BuildBatchPrompt(texts []string, lang Language) string {
	return fmt.Sprintf("Translate the following English texts to %s. Each text is separated by \"%s\". Return only the translated texts in the same order, separated by \"%s\". No explanations or additional text:\n\n%s",
		targetDescription(lang), batchSeparator, batchSeparator, strings.Join(texts, BatchDelimiter))
}

// SplitBatchResponse splits a batch response into trimmed segments.
// A translated segment that itself contains "---" shifts every later slot;
// the caller cannot detect that case.
func SplitBatchResponse(content string) []string {
	parts := strings.Split(strings.TrimSpace(content), batchSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// targetDescription renders "Hindi (Devanagari script)".
func targetDescription(lang Language) string {
	name := GetLanguageName(lang)
	if script := GetScript(lang); script != "" {
		return fmt.Sprintf("%s (%s script)", name, script)
	}
	return name
}
