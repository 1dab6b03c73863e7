package core

import (
	"encoding/json"
	"strings"
)

// extractJSON returns the first brace-delimited substring of text: from
// the first '{' to the last '}'. Returns "" when no such substring exists.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}

// ParseRoundScore extracts a RoundScore from freeform judge output.
// Agent output is untrusted free text, so parsing is total: on any
// failure the deterministic neutral default is returned with the raw
// content preserved as reasoning. Parse failures are not errors.
func ParseRoundScore(text string) *RoundScore {
	fallback := &RoundScore{
		ProScore:        5,
		ConScore:        5,
		Reasoning:       text,
		NeedsMoreRounds: false,
	}

	raw := extractJSON(text)
	if raw == "" {
		return fallback
	}

	var score RoundScore
	if err := json.Unmarshal([]byte(raw), &score); err != nil {
		return fallback
	}

	// Scores outside [1,10] indicate the judge ignored instructions;
	// treat the payload as unusable.
	if score.ProScore < 1 || score.ProScore > 10 || score.ConScore < 1 || score.ConScore > 10 {
		return fallback
	}

	return &score
}

// ParseFactCheck extracts a FactCheckResult from freeform fact-checker
// output. Total for the same reason as ParseRoundScore: on failure the
// raw content becomes the overall assessment and no claims are recorded.
func ParseFactCheck(text string) *FactCheckResult {
	fallback := &FactCheckResult{
		Claims:            []ClaimVerification{},
		OverallAssessment: text,
	}

	raw := extractJSON(text)
	if raw == "" {
		return fallback
	}

	var result FactCheckResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return fallback
	}

	if result.Claims == nil {
		result.Claims = []ClaimVerification{}
	}

	return &result
}
