package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

var (
	ErrEmptyInput         = errors.New("empty input")
	ErrInputTooLong       = errors.New("input too long")
	ErrUnresolvableIntent = errors.New("unresolvable intent")
	ErrMissingSymbol      = errors.New("missing symbol")
	ErrInvalidIntent      = errors.New("invalid intent")
	ErrInvalidDataType    = errors.New("invalid data type")
)

var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrToolRateLimit = errors.New("tool rate limit exceeded")
)

var (
	ErrEmptyNarrative   = errors.New("empty narrative")
	ErrInvalidScore     = errors.New("score must be between 0.0 and 1.0")
	ErrInvalidIteration = errors.New("iteration must be non-negative")
	ErrNoHistory        = errors.New("no analysis history for symbol")
)

// Cancelled - прогон отменен вызывающей стороной, в память ничего не пишем
var ErrCancelled = errors.New("run cancelled")

// ToolFailure - все попытки одного внешнего вызова исчерпаны
type ToolFailure struct {
	Tool     string
	Attempts int
	LastErr  error
}

func (e *ToolFailure) Error() string {
	return fmt.Sprintf("tool %q failed after %d attempts: %v", e.Tool, e.Attempts, e.LastErr)
}

func (e *ToolFailure) Unwrap() error { return e.LastErr }

// AgentFailure - агент не произвел ни одного пригодного результата
type AgentFailure struct {
	Agent  string
	Reason string
	Cause  error
}

func (e *AgentFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("agent %q failed (%s): %v", e.Agent, e.Reason, e.Cause)
	}
	return fmt.Sprintf("agent %q failed (%s)", e.Agent, e.Reason)
}

func (e *AgentFailure) Unwrap() error { return e.Cause }

// RoutingFailure - все диспатченные агенты упали
type RoutingFailure struct {
	Intent Intent
	Causes []error
}

func (e *RoutingFailure) Error() string {
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("routing failed for intent %q: [%s]", e.Intent, strings.Join(msgs, "; "))
}

func (e *RoutingFailure) Unwrap() []error { return e.Causes }

// StageFailure - стадия пайплайна не выполнилась, остаток цепочки отменяется
type StageFailure struct {
	Index int
	Stage string
	Cause error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("pipeline stage %d (%s) failed: %v", e.Index, e.Stage, e.Cause)
}

func (e *StageFailure) Unwrap() error { return e.Cause }
