package vitals

import "context"

// Generator is the interface for any generative-text backend. A call is
// synchronous and single-shot: the engine never retries, and treats every
// non-success outcome (error, timeout, empty text) identically by falling
// back to the rule narrative.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
