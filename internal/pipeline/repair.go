package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prepflow/prepflow/internal/llm/prompts"
)

// Completer invokes a chat-completion endpoint with a (system, user)
// instruction pair and returns the raw response text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Repair parses generated JSON, falling back to a single model-assisted
// repair attempt when the text does not parse as-is.
type Repair struct {
	llm Completer
}

// NewRepair creates a repair pipeline over the given completer.
func NewRepair(llm Completer) *Repair {
	return &Repair{llm: llm}
}

// Parse decodes raw into v. On a parse failure it asks the model once to
// correct the text and decodes the corrected output instead. It returns the
// text that ultimately parsed, so callers can keep it verbatim for audit.
// A second parse failure surfaces ErrInvalidGeneratedFormat.
func (r *Repair) Parse(ctx context.Context, raw string, v any) (string, error) {
	cleaned := stripFences(raw)
	firstErr := json.Unmarshal([]byte(cleaned), v)
	if firstErr == nil {
		return cleaned, nil
	}
	slog.Warn("generated output failed to parse, attempting repair", "error", firstErr)

	p := prompts.Repair(cleaned)
	repaired, err := r.llm.Complete(ctx, p.System, p.User)
	if err != nil {
		return "", fmt.Errorf("%w: repair call: %v", ErrInvalidGeneratedFormat, err)
	}

	repaired = stripFences(repaired)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return "", fmt.Errorf("%w: parse failed before (%v) and after repair (%v)", ErrInvalidGeneratedFormat, firstErr, err)
	}
	return repaired, nil
}

// stripFences removes a surrounding markdown code fence, which models emit
// even when told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 && !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		// drop a language tag like "json" on the opening fence
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
