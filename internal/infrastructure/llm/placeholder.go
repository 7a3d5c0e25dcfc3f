package llm

import (
	"context"

	"NewsDigest/internal/ports"
)

// Placeholder stands in for the model when no credential is configured.
// Its output is clearly labeled so it is never mistaken for a real summary.
type Placeholder struct{}

var _ ports.Summarizer = Placeholder{}

// Summarize echoes the start of the text under a placeholder label.
func (Placeholder) Summarize(_ context.Context, text string) (string, error) {
	return "Placeholder Summary: " + preview(text, previewRunes) + "...", nil
}

// SynthesizeReport returns a fixed notice.
func (Placeholder) SynthesizeReport(context.Context, string) (string, error) {
	return placeholderReport, nil
}
