// Background resize job: one worker goroutine with an explicit lifecycle
package pipeline

import (
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"image-modifier-studio/internal/core"
	"image-modifier-studio/internal/layers"
)

// JobState is the lifecycle state of a ResizeJob.
type JobState int

const (
	StateIdle JobState = iota
	StateRunning
	StateReadyToCollect
)

func (s JobState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateReadyToCollect:
		return "ready_to_collect"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// legalTransitions lists every allowed edge. ReadyToCollect -> Running is a
// restart that discards the uncollected result. Start while Running is
// refused before it reaches the table and leaves the state unchanged.
var legalTransitions = map[JobState][]JobState{
	StateIdle:           {StateRunning},
	StateRunning:        {StateReadyToCollect},
	StateReadyToCollect: {StateIdle, StateRunning},
}

// Resizer produces a preview base from a full-size source.
type Resizer func(src *core.RasterImage, target core.Size) (*core.RasterImage, error)

// FilterResizer resizes with one of the core filters.
func FilterResizer(filter core.FilterKind) Resizer {
	return func(src *core.RasterImage, target core.Size) (*core.RasterImage, error) {
		return src.Resize(target, filter), nil
	}
}

// ResizeRequest is the input of one worker run. Chain is a snapshot and may
// be folded off the UI goroutine.
type ResizeRequest struct {
	Source     *core.RasterImage
	Target     core.Size
	Chain      layers.Chain
	Generation uint64
}

// ResizeResult is what a finished worker hands back. Current is nil when the
// chain was empty.
type ResizeResult struct {
	JobID      uuid.UUID
	Target     core.Size
	Generation uint64
	Base       *core.RasterImage
	Current    *core.RasterImage
	Elapsed    time.Duration
}

// WorkerPanicError reports a panic recovered inside the worker goroutine.
type WorkerPanicError struct {
	JobID uuid.UUID
	Value interface{}
	Stack []byte
}

func (e *WorkerPanicError) Error() string {
	return fmt.Sprintf("resize worker %s panicked: %v", e.JobID, e.Value)
}

// ResizeJob runs at most one background resize at a time. Start and Collect
// are meant to be called from the UI goroutine; the worker only reports back
// through the onFinished callback, which should hop to that goroutine rather
// than call back into the job.
type ResizeJob struct {
	mu     sync.Mutex
	state  JobState
	result *ResizeResult
	err    error
	done   chan struct{}
	closed bool

	wg      sync.WaitGroup
	resizer Resizer
	logger  logrus.FieldLogger
}

// JobOption configures a ResizeJob.
type JobOption func(*ResizeJob)

func WithJobLogger(logger logrus.FieldLogger) JobOption {
	return func(j *ResizeJob) {
		if logger != nil {
			j.logger = logger
		}
	}
}

func WithResizer(resizer Resizer) JobOption {
	return func(j *ResizeJob) {
		if resizer != nil {
			j.resizer = resizer
		}
	}
}

// NewResizeJob returns an idle job that resizes with the linear filter unless
// another resizer is given.
func NewResizeJob(opts ...JobOption) *ResizeJob {
	j := &ResizeJob{
		state:   StateIdle,
		resizer: FilterResizer(core.FilterLinear),
		logger:  discardLogger(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *ResizeJob) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Start launches a worker for req. It returns false while another worker is
// running or after Close. An uncollected result is discarded first, after
// joining the worker that produced it.
func (j *ResizeJob) Start(req ResizeRequest, onFinished func()) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return false
	}
	if j.state == StateReadyToCollect {
		j.joinLocked()
		if j.state == StateReadyToCollect {
			j.logger.Debug("RESIZE JOB: discarding uncollected result")
			j.result, j.err = nil, nil
		}
	}

	if j.closed {
		return false
	}
	if j.state == StateRunning {
		j.logger.WithField("target", req.Target.String()).Debug("RESIZE JOB: worker busy, start refused")
		return false
	}

	j.transition(StateRunning)
	done := make(chan struct{})
	j.done = done
	id := uuid.New()

	j.logger.WithFields(logrus.Fields{
		"job_id":     id.String(),
		"target":     req.Target.String(),
		"modifiers":  len(req.Chain),
		"generation": req.Generation,
	}).Debug("RESIZE JOB: starting worker")

	j.wg.Add(1)
	go j.run(id, done, req, onFinished)
	return true
}

// joinLocked waits, with mu released, until the current worker goroutine has
// returned from onFinished. mu is held again on return and the state may
// have changed meanwhile.
func (j *ResizeJob) joinLocked() {
	done := j.done
	if done == nil {
		return
	}
	j.mu.Unlock()
	<-done
	j.mu.Lock()
}

// run stores the result, flags it ready, notifies, and only then closes
// done. Joining on done therefore waits for the whole goroutine.
func (j *ResizeJob) run(id uuid.UUID, done chan struct{}, req ResizeRequest, onFinished func()) {
	defer j.wg.Done()
	defer close(done)

	result, err := j.render(id, req)

	j.mu.Lock()
	j.result, j.err = result, err
	j.transition(StateReadyToCollect)
	j.mu.Unlock()

	if err != nil {
		j.logger.WithError(err).WithField("job_id", id.String()).Error("RESIZE JOB: worker failed")
	} else {
		j.logger.WithFields(logrus.Fields{
			"job_id":     id.String(),
			"elapsed_ms": result.Elapsed.Milliseconds(),
		}).Debug("RESIZE JOB: worker finished")
	}

	if onFinished != nil {
		onFinished()
	}
}

func (j *ResizeJob) render(id uuid.UUID, req ResizeRequest) (result *ResizeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &WorkerPanicError{JobID: id, Value: r, Stack: debug.Stack()}
		}
	}()

	start := time.Now()
	base, err := j.resizer(req.Source, req.Target)
	if err != nil {
		return nil, fmt.Errorf("resize to %s: %w", req.Target, err)
	}

	var current *core.RasterImage
	if len(req.Chain) > 0 {
		current = req.Chain.Fold(base)
	}

	return &ResizeResult{
		JobID:      id,
		Target:     req.Target,
		Generation: req.Generation,
		Base:       base,
		Current:    current,
		Elapsed:    time.Since(start),
	}, nil
}

// Collect joins a finished worker, takes its result and returns the job to
// Idle. It returns nil, nil when nothing is ready. A worker failure is
// returned as the error. onFinished must not call Collect synchronously: the
// join would wait on the callback itself.
func (j *ResizeJob) Collect() (*ResizeResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.state != StateReadyToCollect {
		return nil, nil
	}
	j.joinLocked()
	if j.state != StateReadyToCollect {
		return nil, nil
	}

	result, err := j.result, j.err
	j.result, j.err, j.done = nil, nil, nil
	j.transition(StateIdle)
	return result, err
}

// Close refuses further starts and blocks until any worker, including its
// onFinished callback, has returned.
func (j *ResizeJob) Close() {
	j.mu.Lock()
	j.closed = true
	j.mu.Unlock()

	j.wg.Wait()

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateReadyToCollect {
		j.result, j.err, j.done = nil, nil, nil
		j.transition(StateIdle)
	}
	j.logger.Debug("RESIZE JOB: closed")
}

// transition must be called with mu held.
func (j *ResizeJob) transition(to JobState) {
	for _, allowed := range legalTransitions[j.state] {
		if allowed == to {
			j.state = to
			return
		}
	}
	panic(fmt.Sprintf("resize job: illegal transition %s -> %s", j.state, to))
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
