package llm

import (
	"context"
	"sync"

	"inkwell/core"
)

// mockProvider is a scriptable Provider for tests. Each model can be given a
// fixed result or a queue of outcomes consumed in order; every call is
// recorded.
type mockProvider struct {
	mu sync.Mutex

	// outcomes maps model -> remaining scripted outcomes.
	outcomes map[string][]mockOutcome

	// calls records every (model) generation call in order.
	calls []string
}

type mockOutcome struct {
	text string
	err  error
}

func newMockProvider() *mockProvider {
	return &mockProvider{outcomes: make(map[string][]mockOutcome)}
}

func (m *mockProvider) Name() string { return "mock" }

// script appends an outcome for the model.
func (m *mockProvider) script(model, text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[model] = append(m.outcomes[model], mockOutcome{text: text, err: err})
}

func (m *mockProvider) Generate(_ context.Context, model, _ string, _ GenerationParams) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, model)

	queue := m.outcomes[model]
	if len(queue) == 0 {
		return nil, core.NewContinuationError(core.KindModelUnavailable, "model "+model+" not found", nil)
	}
	next := queue[0]
	m.outcomes[model] = queue[1:]

	if next.err != nil {
		return nil, next.err
	}
	return &Result{Text: next.text, Model: model}, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockProvider) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
