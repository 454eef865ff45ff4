package executor

import (
	"time"

	"github.com/vvka-141/pgplan/pkg/pgplan"
)

// EventKind tags a progress event.
type EventKind int

const (
	EventStepStarted EventKind = iota + 1
	EventStepFinished
	EventRunFinished
)

// Event describes progress through a plan.
type Event struct {
	Kind    EventKind
	RunID   string
	Index   int // 1-based; 0 for EventRunFinished
	Total   int
	Step    pgplan.Step
	Outcome pgplan.Outcome
	Err     error
	Elapsed time.Duration
	Status  pgplan.RunStatus // Set for EventRunFinished
}

// Observer receives progress events. Calls are made synchronously from the
// executing goroutine.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
