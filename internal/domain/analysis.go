package domain

import (
	"strings"
	"time"
)

type ToolCallStatus string

const (
	ToolCallPending ToolCallStatus = "pending"
	ToolCallOK      ToolCallStatus = "ok"
	ToolCallFailed  ToolCallStatus = "failed"
)

// ToolCall - одна попытка внешнего вызова, пишется в аудит-трейл независимо от исхода
type ToolCall struct {
	Tool      string
	Args      map[string]any
	Attempt   int
	Status    ToolCallStatus
	Err       string
	StartedAt time.Time
	Duration  time.Duration
}

type ResultStatus string

const (
	ResultOK      ResultStatus = "ok"
	ResultPartial ResultStatus = "partial"
)

// AgentResult - результат одного вызова специалиста.
// Владеет им вызывающая сторона (роутер или пайплайн), после создания не мутируется.
type AgentResult struct {
	AgentName  string
	Symbol     string
	Payload    map[string]any
	Status     ResultStatus
	Note       string // пояснение при Status == partial
	ProducedAt time.Time
	ToolCalls  []ToolCall // все попытки в порядке вызова, включая упавшие
}

func (r *AgentResult) Validate() error {
	if strings.TrimSpace(r.AgentName) == "" {
		return ErrInternal
	}
	if r.Symbol == "" {
		return ErrMissingSymbol
	}
	return nil
}

// SynthesisDraft - версионированный кандидат синтеза. Каждая итерация
// уточнения создает НОВЫЙ драфт, правок на месте нет - история проверяема.
type SynthesisDraft struct {
	ID             string
	Symbol         string
	Inputs         []AgentResult // read-only для драфта
	Narrative      string
	Iteration      int
	BelowThreshold bool
	CreatedAt      time.Time
}

func (d *SynthesisDraft) Validate() error {
	if d.Symbol == "" {
		return ErrMissingSymbol
	}
	if strings.TrimSpace(d.Narrative) == "" {
		return ErrEmptyNarrative
	}
	if d.Iteration < 0 {
		return ErrInvalidIteration
	}
	return nil
}

// Evaluation - оценка одного драфта. Ссылается на итерацию, драфтом не владеет.
type Evaluation struct {
	DraftIteration int
	Score          float64
	Passed         bool
	Scores         map[string]float64 // coherence / completeness / groundedness
	Feedback       []string
	EvaluatedAt    time.Time
}

func (e *Evaluation) Validate() error {
	if e.Score < 0 || e.Score > 1 {
		return ErrInvalidScore
	}
	if e.DraftIteration < 0 {
		return ErrInvalidIteration
	}
	return nil
}

// MemoryEntry - сводка одного завершенного прогона (драфт + его оценка)
type MemoryEntry struct {
	RunID     string
	Summary   string
	Iteration int
	Score     float64
	Passed    bool
	CreatedAt time.Time
}

// MemoryRecord - история анализов по символу. Только append, ядро никогда
// не переупорядочивает и не усекает историю.
type MemoryRecord struct {
	Symbol      string
	History     []MemoryEntry
	LastUpdated time.Time
}

func (r *MemoryRecord) Last() *MemoryEntry {
	if len(r.History) == 0 {
		return nil
	}
	return &r.History[len(r.History)-1]
}
