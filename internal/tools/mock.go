package tools

import (
	"context"
	"sync"
)

// MockTool - инструмент для тестов: фиксированный ответ плюс
// очередь ошибок, чтобы проверять ретраи
type MockTool struct {
	mu         sync.Mutex
	name       string
	idempotent bool
	response   map[string]any
	errQueue   []error
	calls      []map[string]any
}

func NewMockTool(name string) *MockTool {
	return &MockTool{
		name:       name,
		idempotent: true,
		response:   map[string]any{"ok": true},
	}
}

func (m *MockTool) WithResponse(resp map[string]any) *MockTool {
	m.response = resp
	return m
}

// WithErrors - первые len(errs) вызовов вернут эти ошибки по порядку,
// nil в очереди означает успешный вызов
func (m *MockTool) WithErrors(errs ...error) *MockTool {
	m.errQueue = errs
	return m
}

func (m *MockTool) WithIdempotent(v bool) *MockTool {
	m.idempotent = v
	return m
}

func (m *MockTool) Name() string     { return m.name }
func (m *MockTool) Idempotent() bool { return m.idempotent }

func (m *MockTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, args)
	if len(m.errQueue) > 0 {
		err := m.errQueue[0]
		m.errQueue = m.errQueue[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.response, nil
}

// CallCount возвращает число сделанных вызовов
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockTool) Calls() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Tool = (*MockTool)(nil)
