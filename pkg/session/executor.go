// Package session runs long operations one at a time off the caller's
// goroutine and exposes their progress.
package session

import (
	"fmt"

	"github.com/nirvanamm/nirvanamm/pkg/config"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/logging"
	"go.uber.org/atomic"
)

// State is the phase of the current or last operation.
type State int32

const (
	Idle State = iota
	PreparingOrigin
	Validating
	Applying
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PreparingOrigin:
		return "preparing-origin"
	case Validating:
		return "validating"
	case Applying:
		return "applying"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether s ends an operation.
func (s State) Terminal() bool {
	return s == Success || s == Failed
}

// Result is what a finished task hands back. Config is the task's own
// copy of the application state, possibly modified.
type Result struct {
	Config *config.AppConfig
	Err    error
	State  State
}

// Task is a unit of work. It reports phase changes through advance and
// returns the config it worked on.
type Task func(advance func(State)) (*config.AppConfig, error)

// Executor runs at most one Task at a time. There is no cancellation:
// a submitted task runs to completion.
type Executor struct {
	busy  atomic.Bool
	state atomic.Int32
}

// NewExecutor returns an idle executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Busy reports whether a task is in flight.
func (e *Executor) Busy() bool {
	return e.busy.Load()
}

// State returns the current phase.
func (e *Executor) State() State {
	return State(e.state.Load())
}

func (e *Executor) advance(s State) {
	logger := logging.GetLogger("session")
	logger.Debug().Str("state", s.String()).Msg("State change")
	e.state.Store(int32(s))
}

// Submit starts task on a new goroutine. It fails with ErrBusy while
// another task is running. The returned channel yields exactly one
// Result and is then closed.
func (e *Executor) Submit(task Task) (<-chan Result, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, errors.Newf(errors.ErrBusy, "another operation is in progress (%s)", e.State())
	}
	e.state.Store(int32(Idle))

	results := make(chan Result, 1)
	go func() {
		defer close(results)
		res := e.run(task)
		e.state.Store(int32(res.State))
		e.busy.Store(false)
		results <- res
	}()
	return results, nil
}

func (e *Executor) run(task Task) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: errors.Newf(errors.ErrInternal, "operation panicked: %v", r), State: Failed}
		}
	}()

	cfg, err := task(e.advance)
	if err != nil {
		return Result{Config: cfg, Err: err, State: Failed}
	}
	return Result{Config: cfg, State: Success}
}

// Run submits task and waits for its result.
func (e *Executor) Run(task Task) Result {
	results, err := e.Submit(task)
	if err != nil {
		return Result{Err: err, State: e.State()}
	}
	return <-results
}
