package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// machine keeps transitions indexed as [from][event] for constant-time lookup.
type machine struct {
	initial     State
	current     State
	transitions map[string]map[string][]Transition
	mu          sync.RWMutex
}

func newMachine(initial State) *machine {
	return &machine{
		initial:     initial,
		current:     initial,
		transitions: make(map[string]map[string][]Transition),
	}
}

func (m *machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *machine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byEvent, ok := m.transitions[from.Name()]
	if !ok {
		byEvent = make(map[string][]Transition)
		m.transitions[from.Name()] = byEvent
	}
	// Several transitions per (from, event) allow guard-based branching;
	// registration order is priority order.
	byEvent[event.Name()] = append(byEvent[event.Name()], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

func (m *machine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := m.transitions[m.current.Name()][event.Name()]
	if len(candidates) == 0 {
		return NewErrNoTransitionAvailable(m.current.Name(), event.Name())
	}

	t := m.firstAllowed(ctx, candidates, event, data)
	if t == nil {
		return NewErrTransitionRejected(m.current.Name(), event.Name())
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, m.current, t.To, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = t.To
	return nil
}

func (m *machine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := m.transitions[m.current.Name()][event.Name()]
	return m.firstAllowed(ctx, candidates, event, data) != nil
}

func (m *machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
	return nil
}

// Must be called with lock held.
func (m *machine) firstAllowed(ctx context.Context, candidates []Transition, event Event, data any) *Transition {
	for i := range candidates {
		allowed := true
		for _, guard := range candidates[i].Guards {
			if guard != nil && !guard(ctx, m.current, event, data) {
				allowed = false
				break
			}
		}
		if allowed {
			return &candidates[i]
		}
	}
	return nil
}
