package prompt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"kompis/server/internal/domain"
)

// EnrichRequest carries everything the rewriter may fold into one prompt.
type EnrichRequest struct {
	RawPrompt  string
	Companion  *domain.Companion
	Attributes string
}

// Rewriter produces a single enriched generation prompt from the request.
type Rewriter interface {
	Rewrite(ctx context.Context, req EnrichRequest) (string, error)
}

// Enricher wraps a Rewriter and guarantees a usable prompt: on any rewriter
// failure or empty completion it degrades to a plain concatenation of the raw
// prompt and whatever attributes were extracted.
type Enricher struct {
	rewriter   Rewriter
	onFallback func(reason string, err error)
}

// EnricherOptions configures the enrichment stage.
type EnricherOptions struct {
	Rewriter   Rewriter
	OnFallback func(reason string, err error)
}

func NewEnricher(opts EnricherOptions) *Enricher {
	return &Enricher{rewriter: opts.Rewriter, onFallback: opts.OnFallback}
}

// Enrich returns the enriched prompt. The raw prompt must be validated
// non-empty by the caller; everything past that precondition degrades instead
// of failing.
func (e *Enricher) Enrich(ctx context.Context, req EnrichRequest) string {
	req.RawPrompt = strings.TrimSpace(req.RawPrompt)
	if e == nil || e.rewriter == nil {
		return ConcatPrompt(req)
	}
	enriched, err := e.rewriter.Rewrite(ctx, req)
	if err != nil {
		e.emitFallback("rewrite_failed", err)
		return ConcatPrompt(req)
	}
	enriched = strings.TrimSpace(enriched)
	if enriched == "" {
		e.emitFallback("empty_completion", nil)
		return ConcatPrompt(req)
	}
	return enriched
}

func (e *Enricher) emitFallback(reason string, err error) {
	if e.onFallback != nil {
		e.onFallback(reason, err)
	}
}

// ConcatPrompt is the degradation path: the raw prompt followed by the
// companion context block and the extracted attribute summary.
func ConcatPrompt(req EnrichRequest) string {
	parts := []string{strings.TrimSpace(req.RawPrompt)}
	if block := CompanionContext(req.Companion); block != "" {
		parts = append(parts, block)
	}
	if attrs := strings.TrimSpace(req.Attributes); attrs != "" {
		parts = append(parts, attrs)
	}
	var filtered []string
	for _, p := range parts {
		if p != "" {
			filtered = append(filtered, p)
		}
	}
	return strings.Join(filtered, ". ")
}

// CompanionContext renders stored companion attributes as a compact context
// block for the rewriter and the concatenation fallback.
func CompanionContext(c *domain.Companion) string {
	if c == nil {
		return ""
	}
	titled := cases.Title(language.Und)
	var sb strings.Builder
	if name := strings.TrimSpace(c.Name); name != "" {
		fmt.Fprintf(&sb, "%s", titled.String(name))
	}
	if c.Age > 0 {
		fmt.Fprintf(&sb, ", %d years old", c.Age)
	}
	appendAttr(&sb, "ethnicity", c.Ethnicity)
	appendAttr(&sb, "body", c.Body)
	appendAttr(&sb, "personality", c.Personality)
	appendAttr(&sb, "relationship", c.Relationship)
	if desc := strings.TrimSpace(c.Description); desc != "" {
		if sb.Len() > 0 {
			sb.WriteString(". ")
		}
		sb.WriteString(desc)
	}
	return strings.TrimSpace(sb.String())
}

func appendAttr(sb *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString(", ")
	}
	fmt.Fprintf(sb, "%s: %s", label, value)
}
