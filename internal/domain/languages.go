package domain

import "strings"

const (
	DefaultTranscriptionLanguage = "en-US"
	DefaultTranslationLanguage   = "en"

	// DefaultTranslationChoice is the target preselected in both UIs.
	DefaultTranslationChoice = "hi"
)

// LanguageOption pairs a display name with the code sent to a service.
type LanguageOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// LanguageCatalog is the pair of language tables shown by the front ends.
type LanguageCatalog struct {
	Transcription        []LanguageOption `json:"transcription"`
	Translation          []LanguageOption `json:"translation"`
	DefaultTranscription string           `json:"defaultTranscription"`
	DefaultTranslation   string           `json:"defaultTranslation"`
}

// TranscriptionLanguages are the recognizer tags offered to users.
var TranscriptionLanguages = []LanguageOption{
	{Code: "en-US", Name: "English (US)"},
	{Code: "en-GB", Name: "English (UK)"},
	{Code: "hi-IN", Name: "Hindi"},
	{Code: "ta-IN", Name: "Tamil"},
	{Code: "te-IN", Name: "Telugu"},
	{Code: "bn-IN", Name: "Bengali"},
	{Code: "mr-IN", Name: "Marathi"},
	{Code: "gu-IN", Name: "Gujarati"},
	{Code: "pa-IN", Name: "Punjabi"},
	{Code: "ml-IN", Name: "Malayalam"},
	{Code: "kn-IN", Name: "Kannada"},
	{Code: "ur-IN", Name: "Urdu"},
}

// TranslationLanguages are the translation targets offered to users.
var TranslationLanguages = []LanguageOption{
	{Code: "hi", Name: "Hindi"},
	{Code: "ta", Name: "Tamil"},
	{Code: "te", Name: "Telugu"},
	{Code: "bn", Name: "Bengali"},
	{Code: "mr", Name: "Marathi"},
	{Code: "gu", Name: "Gujarati"},
	{Code: "pa", Name: "Punjabi"},
	{Code: "ml", Name: "Malayalam"},
	{Code: "kn", Name: "Kannada"},
	{Code: "ur", Name: "Urdu"},
	{Code: "en", Name: "English"},
}

// Languages returns both language tables with their UI defaults.
func Languages() LanguageCatalog {
	return LanguageCatalog{
		Transcription:        append([]LanguageOption(nil), TranscriptionLanguages...),
		Translation:          append([]LanguageOption(nil), TranslationLanguages...),
		DefaultTranscription: DefaultTranscriptionLanguage,
		DefaultTranslation:   DefaultTranslationChoice,
	}
}

// ResolveTranscriptionLanguage accepts a tag or display name and returns a tag.
func ResolveTranscriptionLanguage(raw string) string {
	return resolveLanguage(TranscriptionLanguages, raw, DefaultTranscriptionLanguage)
}

// ResolveTranslationLanguage accepts a code or display name and returns a code.
func ResolveTranslationLanguage(raw string) string {
	return resolveLanguage(TranslationLanguages, raw, DefaultTranslationLanguage)
}

func resolveLanguage(options []LanguageOption, raw, fallback string) string {
	key := normalizeKey(raw)
	if key == "" {
		return fallback
	}
	for _, option := range options {
		if strings.ToLower(option.Code) == key || strings.ToLower(option.Name) == key {
			return option.Code
		}
	}
	return fallback
}

func normalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
