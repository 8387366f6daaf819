package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/stow/internal/common"
)

// Suggestion is a validated classifier answer.
type Suggestion struct {
	Folder     string
	Reasoning  string
	Confidence float64
}

type rawSuggestion struct {
	Folder     string          `json:"folder"`
	Reasoning  string          `json:"reasoning"`
	Confidence json.RawMessage `json:"confidence"`
}

// cleanMarkdownWrapper strips ``` fences and any prose around the JSON object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// parseSuggestion decodes a {"folder","confidence","reasoning"} reply.
// The folder must name one of candidates; confidence is a percentage.
func parseSuggestion(content string, candidates []string) (Suggestion, error) {
	var raw rawSuggestion
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(content)), &raw); err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}

	folder, ok := matchCandidate(raw.Folder, candidates)
	if !ok {
		return Suggestion{}, fmt.Errorf("%w: folder %q is not a candidate", common.ErrMalformedResponse, raw.Folder)
	}

	pct, err := parsePercent(raw.Confidence)
	if err != nil {
		return Suggestion{}, err
	}

	return Suggestion{
		Folder:     folder,
		Confidence: pct / 100,
		Reasoning:  strings.TrimSpace(raw.Reasoning),
	}, nil
}

// matchCandidate resolves name to the candidate spelling, ignoring case and surrounding space.
func matchCandidate(name string, candidates []string) (string, bool) {
	name = strings.TrimSpace(strings.Trim(strings.TrimSpace(name), `"'/`))
	if name == "" {
		return "", false
	}
	for _, c := range candidates {
		if c == name {
			return c, true
		}
	}
	for _, c := range candidates {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

func parsePercent(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: missing confidence", common.ErrMalformedResponse)
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: confidence %s", common.ErrMalformedResponse, raw)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: confidence %q", common.ErrMalformedResponse, s)
		}
		n = parsed
	}

	switch {
	case n < 0:
		n = 0
	case n > 100:
		n = 100
	}
	return n, nil
}
