package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is a step of a single dispatch.
type State string

const (
	StateReceived      State = "received"
	StateRejected      State = "rejected"
	StateClassifying   State = "classifying"
	StateClassifyFail  State = "classify_failed"
	StateDispatching   State = "dispatching"
	StateUnrecognized  State = "unrecognized"
	StateExecuting     State = "executing"
	StateSucceeded     State = "succeeded"
	StateHandlerFailed State = "handler_failed"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	switch s {
	case StateRejected, StateClassifyFail, StateUnrecognized, StateSucceeded, StateHandlerFailed:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateReceived:
		return to == StateClassifying || to == StateRejected
	case StateClassifying:
		return to == StateClassifyFail || to == StateDispatching
	case StateDispatching:
		return to == StateUnrecognized || to == StateExecuting
	case StateExecuting:
		return to == StateSucceeded || to == StateHandlerFailed
	default:
		return false
	}
}

// Outcome is the terminal record of one dispatch.
type Outcome struct {
	RunID     string
	Task      string
	Label     string // raw classifier answer
	Operation Operation
	State     State
	Result    *Result
	Err       *Error
	Duration  time.Duration
}

// Failed reports whether the dispatch ended in an error.
func (o *Outcome) Failed() bool { return o.Err != nil }

// GenerateRunID creates a short correlation id for logs.
func GenerateRunID() string {
	u := uuid.New().String()
	return "run_" + strings.ReplaceAll(u[:8], "-", "")
}

// Dispatcher runs the classify → lookup → execute cycle for one request.
// It holds no per-request state.
type Dispatcher struct {
	classifier     Classifier
	registry       *Registry
	handlerTimeout time.Duration
}

// NewDispatcher creates a dispatcher. A zero handlerTimeout means handlers
// run without a deadline of their own.
func NewDispatcher(classifier Classifier, registry *Registry, handlerTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		classifier:     classifier,
		registry:       registry,
		handlerTimeout: handlerTimeout,
	}
}

type run struct {
	out   *Outcome
	start time.Time
}

func (r *run) advance(to State) error {
	if !isAllowedTransition(r.out.State, to) {
		return fmt.Errorf("dispatch %s: disallowed transition %s -> %s", r.out.RunID, r.out.State, to)
	}
	slog.Debug("dispatch transition", "run_id", r.out.RunID, "from", r.out.State, "to", to)
	r.out.State = to
	return nil
}

func (r *run) finish(to State, err error) *Outcome {
	if aerr := r.advance(to); aerr != nil {
		// Only reachable through a programming error in Dispatch.
		err = aerr
	}
	if err != nil {
		r.out.Err = AsError(err)
	}
	r.out.Duration = time.Since(r.start)

	attrs := []any{
		"run_id", r.out.RunID,
		"operation", r.out.Operation.String(),
		"state", r.out.State,
		"duration", r.out.Duration,
	}
	if r.out.Err != nil {
		slog.Info("dispatch failed", append(attrs, "kind", KindName(r.out.Err), "error", r.out.Err.Message())...)
	} else {
		slog.Info("dispatch succeeded", attrs...)
	}
	return r.out
}

// Dispatch classifies task and invokes the matching handler exactly once.
// The handler runs detached from ctx cancellation so a caller hanging up
// does not leave outputs half written.
func (d *Dispatcher) Dispatch(ctx context.Context, task string) *Outcome {
	r := &run{
		out:   &Outcome{RunID: GenerateRunID(), Task: task, State: StateReceived},
		start: time.Now(),
	}

	if strings.TrimSpace(task) == "" {
		return r.finish(StateRejected, &Error{Kind: ErrEmptyTask, Msg: "task must not be empty"})
	}

	if err := r.advance(StateClassifying); err != nil {
		return r.finish(StateClassifyFail, err)
	}
	label, err := d.classifier.Classify(ctx, task)
	if err != nil {
		te := AsError(err)
		if te.Kind != ErrClassification {
			te = &Error{Kind: ErrClassification, Err: err}
		}
		return r.finish(StateClassifyFail, te)
	}
	r.out.Label = label

	if err := r.advance(StateDispatching); err != nil {
		return r.finish(StateUnrecognized, err)
	}
	r.out.Operation = ParseOperation(label)
	handler, ok := d.registry.Lookup(r.out.Operation)
	if !ok {
		slog.Debug("unrecognized label", "run_id", r.out.RunID, "label", label)
		return r.finish(StateUnrecognized, &Error{Kind: ErrUnrecognized, Msg: "task not recognized"})
	}

	if err := r.advance(StateExecuting); err != nil {
		return r.finish(StateHandlerFailed, err)
	}
	res, err := d.execute(ctx, handler)
	if err != nil {
		return r.finish(StateHandlerFailed, err)
	}
	r.out.Result = res
	return r.finish(StateSucceeded, nil)
}

// Execute runs the handler for op directly, without classification.
func (d *Dispatcher) Execute(ctx context.Context, op Operation) (*Result, error) {
	handler, ok := d.registry.Lookup(op)
	if !ok {
		return nil, &Error{Kind: ErrUnrecognized, Msg: fmt.Sprintf("unknown operation %q", op)}
	}
	res, err := d.execute(ctx, handler)
	if err != nil {
		return nil, AsError(err)
	}
	return res, nil
}

func (d *Dispatcher) execute(ctx context.Context, handler Handler) (res *Result, err error) {
	hctx := context.WithoutCancel(ctx)
	if d.handlerTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(hctx, d.handlerTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			res, err = nil, Executionf("handler panic: %v", p)
		}
	}()

	res, err = handler(hctx)
	if err == nil && res == nil {
		res = Success("done")
	}
	return res, err
}
