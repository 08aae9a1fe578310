package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/civiclens/civiclens/internal/domain/issue"
)

const (
	defaultSummary  = "Analysis complete."
	defaultSeverity = "medium"
)

var validSeverities = map[string]bool{
	"low":      true,
	"medium":   true,
	"high":     true,
	"critical": true,
}

// IsAffirmative reports whether a free-text oracle reply is an exact YES.
// Surrounding whitespace, quotes and punctuation are ignored; anything else,
// including an empty reply or "YES, but...", counts as NO.
func IsAffirmative(reply string) bool {
	trimmed := strings.TrimFunc(reply, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || r == '`'
	})
	return strings.EqualFold(trimmed, "YES")
}

// TriageVerdict is the oracle's assessment of a reported photo with every
// missing field filled by its default.
type TriageVerdict struct {
	Verified        bool    `json:"verified"`
	ConfidenceScore float64 `json:"confidence_score"`
	Summary         string  `json:"summary"`
	Severity        string  `json:"severity"`
}

type partialVerdict struct {
	Verified        *bool    `json:"verified"`
	ConfidenceScore *float64 `json:"confidence_score"`
	Summary         *string  `json:"summary"`
	Severity        *string  `json:"severity"`
}

// ParseTriageVerdict decodes the oracle's JSON answer. Markdown code fences are
// tolerated. A confidence score outside [0, 100] is an error.
func ParseTriageVerdict(text string) (TriageVerdict, error) {
	body := stripCodeFence(text)
	if body == "" {
		return TriageVerdict{}, fmt.Errorf("empty triage response")
	}

	var raw partialVerdict
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return TriageVerdict{}, fmt.Errorf("failed to decode triage response: %w", err)
	}

	v := TriageVerdict{
		Summary:  defaultSummary,
		Severity: defaultSeverity,
	}
	if raw.Verified != nil {
		v.Verified = *raw.Verified
	}
	if raw.ConfidenceScore != nil {
		if err := issue.ValidateScore(*raw.ConfidenceScore); err != nil {
			return TriageVerdict{}, err
		}
		v.ConfidenceScore = *raw.ConfidenceScore
	}
	if raw.Summary != nil && strings.TrimSpace(*raw.Summary) != "" {
		v.Summary = strings.TrimSpace(*raw.Summary)
	}
	if raw.Severity != nil {
		sev := strings.ToLower(strings.TrimSpace(*raw.Severity))
		if validSeverities[sev] {
			v.Severity = sev
		}
	}
	return v, nil
}

// Metadata renders the verdict as ledger metadata.
func (v TriageVerdict) Metadata(model string) map[string]any {
	return map[string]any{
		"verified":         v.Verified,
		"confidence_score": v.ConfidenceScore,
		"summary":          v.Summary,
		"severity":         v.Severity,
		"model":            model,
	}
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
