package repositories

import "context"

// GenerativeTextModel abstracts any text-generation provider. The raw
// response is expected to contain a JSON payload per call site; the
// caller, not the adapter, is responsible for parse-with-fallback.
type GenerativeTextModel interface {
	// Complete sends one prompt and returns the raw model text.
	Complete(ctx context.Context, prompt string) (string, error)
}
