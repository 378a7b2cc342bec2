package vitals

import (
	"context"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/wardlabs/vitalis/internal/news2"
	"github.com/wardlabs/vitalis/internal/patient"
)

// DefaultLLMTimeout bounds the single generative call. The fallback narrative
// is used unconditionally once the budget is spent.
const DefaultLLMTimeout = 8 * time.Second

// Interpretation is the narrative attached to a vitals record.
type Interpretation struct {
	Text   string
	Source Source
}

// Engine produces the clinical narrative for a scored reading. The primary
// path asks the generative provider; every non-success outcome falls back to
// the local rule engine. Interpret never fails.
type Engine struct {
	gen     Generator
	timeout time.Duration
	logger  log.Logger
	hooks   EngineHooks
}

// NewEngine creates an interpretation engine. gen may be nil, in which case
// every interpretation uses the rule tier. A non-positive timeout falls back
// to DefaultLLMTimeout.
func NewEngine(gen Generator, timeout time.Duration, logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	return &Engine{
		gen:     gen,
		timeout: timeout,
		logger:  logger,
		hooks:   hooks,
	}
}

// Interpret returns a narrative for the reading. It is total: provider
// failures fall back to the rule tier, and a failure inside narrative
// assembly itself still yields a minimal usable narrative.
func (e *Engine) Interpret(ctx context.Context, r Reading, p *patient.Patient, score int, alert news2.Alert) (out Interpretation) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn(ctx, "narrative assembly panicked, using minimal narrative", "panic", rec)
			out = Interpretation{Text: minimalNarrative(score, alert), Source: SourceRules}
		}
	}()

	if text, ok := e.generate(ctx, r, p, score, alert); ok {
		return Interpretation{Text: text, Source: SourceLLM}
	}

	if e.hooks.OnFallback != nil {
		e.hooks.OnFallback()
	}
	return Interpretation{Text: fallbackNarrative(r, p, score, alert), Source: SourceRules}
}

// generate runs the primary tier. It reports ok=false for any non-success
// outcome without distinguishing the error subtype.
func (e *Engine) generate(ctx context.Context, r Reading, p *patient.Patient, score int, alert news2.Alert) (string, bool) {
	if e.gen == nil {
		return "", false
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	text, err := e.gen.Generate(cctx, buildSystemPrompt(), buildUserPrompt(r, p, score, alert))
	elapsed := time.Since(start).Seconds()

	if e.hooks.OnLLMCall != nil {
		e.hooks.OnLLMCall(elapsed, err)
	}

	if err != nil {
		e.logger.Warn(ctx, "generative interpretation failed, falling back to rules",
			"error", err.Error(),
			"duration", elapsed,
		)
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		e.logger.Warn(ctx, "generative interpretation empty, falling back to rules")
		return "", false
	}

	if !strings.HasSuffix(text, disclaimer) {
		text += "\n\n" + disclaimer
	}
	return text, true
}
