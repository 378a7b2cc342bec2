package vitals

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/wardlabs/vitalis/internal/patient"
)

// mockGenerator returns preconfigured responses in sequence.
type mockGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	callIdx   int
	delay     time.Duration
}

func (m *mockGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	m.mu.Lock()
	idx := m.callIdx
	m.callIdx++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if idx < len(m.errs) && m.errs[idx] != nil {
		return "", m.errs[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return "generated interpretation", nil
}

func (m *mockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callIdx
}

func TestInterpret_GeneratorSuccess(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{responses: []string{"OBSERVATIONS:\n- Elevated heart rate."}}
	engine := NewEngine(gen, 0, log.Nop(), EngineHooks{})

	r := normalReading()
	score, alert := scored(r)
	out := engine.Interpret(context.Background(), r, nil, score, alert)

	if out.Source != SourceLLM {
		t.Errorf("source = %q, want %q", out.Source, SourceLLM)
	}
	if !strings.Contains(out.Text, "Elevated heart rate.") {
		t.Errorf("interpretation missing generated text: %q", out.Text)
	}
	if !strings.HasSuffix(out.Text, disclaimer) {
		t.Errorf("interpretation missing appended disclaimer: %q", out.Text)
	}
}

func TestInterpret_DisclaimerNotDuplicated(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{responses: []string{"All stable.\n\n" + disclaimer}}
	engine := NewEngine(gen, 0, log.Nop(), EngineHooks{})

	r := normalReading()
	score, alert := scored(r)
	out := engine.Interpret(context.Background(), r, nil, score, alert)

	if got := strings.Count(out.Text, disclaimer); got != 1 {
		t.Errorf("disclaimer appears %d times, want 1:\n%s", got, out.Text)
	}
}

func TestInterpret_GeneratorErrorFallsBack(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{errs: []error{errors.New("api key expired")}}
	engine := NewEngine(gen, 0, log.Nop(), EngineHooks{})

	r := Reading{
		SystolicBP:       85,
		DiastolicBP:      50,
		HeartRate:        125,
		Temperature:      36.5,
		RespiratoryRate:  22,
		OxygenSaturation: 95,
	}
	score, alert := scored(r)
	out := engine.Interpret(context.Background(), r, nil, score, alert)

	if out.Source != SourceRules {
		t.Errorf("source = %q, want %q", out.Source, SourceRules)
	}
	if !strings.Contains(out.Text, "POSSIBLE SHOCK:") {
		t.Errorf("fallback narrative missing shock alert:\n%s", out.Text)
	}
	if !strings.HasSuffix(out.Text, disclaimer) {
		t.Errorf("fallback narrative missing disclaimer:\n%s", out.Text)
	}
}

func TestInterpret_EmptyResponseFallsBack(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{responses: []string{"   \n  "}}
	engine := NewEngine(gen, 0, log.Nop(), EngineHooks{})

	r := normalReading()
	score, alert := scored(r)
	out := engine.Interpret(context.Background(), r, nil, score, alert)

	if out.Source != SourceRules {
		t.Errorf("source = %q, want %q", out.Source, SourceRules)
	}
}

func TestInterpret_NilGeneratorUsesRules(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, 0, log.Nop(), EngineHooks{})

	r := normalReading()
	score, alert := scored(r)
	out := engine.Interpret(context.Background(), r, nil, score, alert)

	if out.Source != SourceRules {
		t.Errorf("source = %q, want %q", out.Source, SourceRules)
	}
	if !strings.Contains(out.Text, "Vital signs stable within normal limits.") {
		t.Errorf("rule narrative missing stable line:\n%s", out.Text)
	}
}

func TestInterpret_TimeoutFallsBack(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{delay: 500 * time.Millisecond}
	engine := NewEngine(gen, 10*time.Millisecond, log.Nop(), EngineHooks{})

	r := normalReading()
	score, alert := scored(r)

	start := time.Now()
	out := engine.Interpret(context.Background(), r, nil, score, alert)

	if out.Source != SourceRules {
		t.Errorf("source = %q, want %q", out.Source, SourceRules)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("interpret took %v, timeout did not bound the call", elapsed)
	}
}

func TestInterpret_SingleCallPerReading(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{errs: []error{errors.New("transient")}}
	engine := NewEngine(gen, 0, log.Nop(), EngineHooks{})

	r := normalReading()
	score, alert := scored(r)
	engine.Interpret(context.Background(), r, nil, score, alert)

	if got := gen.calls(); got != 1 {
		t.Errorf("generator calls = %d, want 1 (no retry)", got)
	}
}

func TestInterpret_HooksCalled(t *testing.T) {
	t.Parallel()

	var (
		mu        sync.Mutex
		llmCalls  int
		llmErrs   int
		fallbacks int
	)
	hooks := EngineHooks{
		OnLLMCall: func(_ float64, err error) {
			mu.Lock()
			defer mu.Unlock()
			llmCalls++
			if err != nil {
				llmErrs++
			}
		},
		OnFallback: func() {
			mu.Lock()
			defer mu.Unlock()
			fallbacks++
		},
	}

	gen := &mockGenerator{
		responses: []string{"first interpretation", ""},
		errs:      []error{nil, errors.New("boom")},
	}
	engine := NewEngine(gen, 0, log.Nop(), hooks)

	r := normalReading()
	score, alert := scored(r)
	engine.Interpret(context.Background(), r, nil, score, alert) // success
	engine.Interpret(context.Background(), r, nil, score, alert) // error -> fallback

	mu.Lock()
	defer mu.Unlock()
	if llmCalls != 2 {
		t.Errorf("llm hook calls = %d, want 2", llmCalls)
	}
	if llmErrs != 1 {
		t.Errorf("llm hook errors = %d, want 1", llmErrs)
	}
	if fallbacks != 1 {
		t.Errorf("fallback hook calls = %d, want 1", fallbacks)
	}
}

// panicGenerator triggers the recovery path inside Interpret.
type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, string, string) (string, error) {
	panic("provider blew up")
}

func TestInterpret_RecoverUsesMinimalNarrative(t *testing.T) {
	t.Parallel()

	engine := NewEngine(panicGenerator{}, 0, log.Nop(), EngineHooks{})

	r := normalReading()
	score, alert := scored(r)
	out := engine.Interpret(context.Background(), r, &patient.Patient{ID: "p1"}, score, alert)

	if out.Source != SourceRules {
		t.Errorf("source = %q, want %q", out.Source, SourceRules)
	}
	if !strings.HasSuffix(out.Text, disclaimer) {
		t.Errorf("recovered narrative missing disclaimer: %q", out.Text)
	}
	if !strings.Contains(out.Text, "NEWS2 score") {
		t.Errorf("recovered narrative missing score: %q", out.Text)
	}
}

func TestNewEngine_Defaults(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil, -1, nil, EngineHooks{})
	if engine.timeout != DefaultLLMTimeout {
		t.Errorf("timeout = %v, want %v", engine.timeout, DefaultLLMTimeout)
	}
	if engine.logger == nil {
		t.Error("expected non-nil logger")
	}

	// usable without a generator
	score, alert := scored(normalReading())
	out := engine.Interpret(context.Background(), normalReading(), nil, score, alert)
	if out.Text == "" {
		t.Error("expected non-empty interpretation")
	}
}
