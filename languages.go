package kisan

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// LanguageNames maps base language codes to the names used in prompts.
var LanguageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"mr": "Marathi",
	"bn": "Bengali",
	"gu": "Gujarati",
	"pa": "Punjabi",
	"ta": "Tamil",
	"te": "Telugu",
	"kn": "Kannada",
	"ml": "Malayalam",
	"or": "Odia",
	"ur": "Urdu",
}

// Scripts maps base language codes to the script the provider must answer in.
var Scripts = map[string]string{
	"hi": "Devanagari",
	"mr": "Devanagari",
	"bn": "Bengali",
	"gu": "Gujarati",
	"pa": "Gurmukhi",
	"ta": "Tamil",
	"te": "Telugu",
	"kn": "Kannada",
	"ml": "Malayalam",
	"or": "Odia",
	"ur": "Perso-Arabic",
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ur": true, // Urdu
	"sd": true, // Sindhi
	"ks": true, // Kashmiri
}

// UILanguages are the languages the dashboard can be switched to.
var UILanguages = []Language{LangEnglish, LangHindi}

// ParseLanguage normalizes a BCP 47 tag or locale ("hi", "hi-IN", "hi_IN")
// to its base language code.
func ParseLanguage(s string) (Language, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", s, err)
	}
	base, _ := tag.Base()
	return Language(base.String()), nil
}

// IsUILanguage reports whether lang is one of UILanguages.
func IsUILanguage(lang Language) bool {
	for _, l := range UILanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(lang Language) string {
	if name, ok := LanguageNames[baseCode(lang)]; ok {
		return name
	}
	return string(lang)
}

// GetScript returns the expected output script, or "" when there is no
// preference.
func GetScript(lang Language) string {
	return Scripts[baseCode(lang)]
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(lang Language) string {
	if RTLLanguages[baseCode(lang)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(lang Language) bool {
	return GetDirection(lang) == "rtl"
}

// baseCode extracts the lowercase base code ("hi" from "hi_IN" or "hi-IN").
func baseCode(lang Language) string {
	s := strings.ReplaceAll(string(lang), "_", "-")
	return strings.ToLower(strings.Split(s, "-")[0])
}

// sameLanguage reports whether two codes share a base language.
func sameLanguage(a, b Language) bool {
	return baseCode(a) == baseCode(b)
}
