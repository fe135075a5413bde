package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBudgetExhausted signals that a run consumed its model-call allowance.
// Strategies should catch it, stop iterating and return their best attempt
// with a budget_exhausted status instead of failing hard.
var ErrBudgetExhausted = errors.New("run budget exhausted")

// Budget enforces per-run ceilings on model calls. A zero ceiling means
// unlimited. Safe for concurrent use by parallel strategies sharing a run.
type Budget struct {
	maxModelCalls int
	modelCalls    int
	mu            sync.Mutex
}

// NewBudget creates a budget with the given model-call ceiling.
// If maxModelCalls == 0, unlimited calls are allowed.
func NewBudget(maxModelCalls int) *Budget {
	return &Budget{maxModelCalls: maxModelCalls}
}

// ConsumeModelCall records one model call and returns ErrBudgetExhausted
// (wrapped with the current count) once the ceiling is exceeded.
func (b *Budget) ConsumeModelCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxModelCalls > 0 && b.modelCalls >= b.maxModelCalls {
		return fmt.Errorf("%w: %d model calls", ErrBudgetExhausted, b.maxModelCalls)
	}

	b.modelCalls++

	return nil
}

// ModelCalls returns the number of model calls recorded so far.
func (b *Budget) ModelCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.modelCalls
}

// RemainingModelCalls returns how many calls are left before the ceiling,
// or -1 when unlimited.
func (b *Budget) RemainingModelCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxModelCalls == 0 {
		return -1
	}

	return b.maxModelCalls - b.modelCalls
}

// Exhausted reports whether the ceiling has been reached.
func (b *Budget) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.maxModelCalls > 0 && b.modelCalls >= b.maxModelCalls
}
