// Modifier pipeline: original, resized base and modified preview caches
package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"image-modifier-studio/internal/core"
	"image-modifier-studio/internal/layers"
	"image-modifier-studio/internal/metrics"
	"image-modifier-studio/internal/modifiers"
)

// DefaultHysteresis is the relative width change below which a resize keeps
// the cached previews.
const DefaultHysteresis = 0.1

// CacheState describes which preview caches are populated.
type CacheState int

const (
	NoBase CacheState = iota
	BaseOnly
	BaseAndCurrent
)

func (s CacheState) String() string {
	switch s {
	case NoBase:
		return "no_base"
	case BaseOnly:
		return "base_only"
	default:
		return "base_and_current"
	}
}

type options struct {
	logger        logrus.FieldLogger
	hysteresis    float64
	previewFilter core.FilterKind
	job           *ResizeJob
	minPixels     int
	onRepaint     func()
	evaluator     *metrics.Evaluator
}

// Option configures a ModifierPipeline.
type Option func(*options)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHysteresis sets the relative width change that triggers a recompute.
func WithHysteresis(h float64) Option {
	return func(o *options) {
		if h >= 0 {
			o.hysteresis = h
		}
	}
}

// WithPreviewFilter sets the filter used for synchronous preview resizes.
func WithPreviewFilter(filter core.FilterKind) Option {
	return func(o *options) {
		o.previewFilter = filter
	}
}

// WithBackground hands resizes of originals with at least minPixels pixels to
// job. onRepaint is called from the worker goroutine when a result is ready;
// it must arrange for Poll to run on the UI goroutine.
func WithBackground(job *ResizeJob, minPixels int, onRepaint func()) Option {
	return func(o *options) {
		o.job = job
		o.minPixels = minPixels
		o.onRepaint = onRepaint
	}
}

func WithMetrics(evaluator *metrics.Evaluator) Option {
	return func(o *options) {
		if evaluator != nil {
			o.evaluator = evaluator
		}
	}
}

// ModifierPipeline owns a full-resolution original and two preview caches:
// base (original resized to the preview size) and current (base with every
// enabled modifier applied). It is not safe for concurrent use; the only
// concurrency is the optional ResizeJob, reached through Poll.
type ModifierPipeline struct {
	original    *core.RasterImage
	base        *core.RasterImage
	current     *core.RasterImage
	stack       *layers.Stack
	previewSize core.Size
	active      int

	// generation counts structural and parameter changes so a background
	// result can tell whether its folded current is still valid.
	generation uint64

	opts   options
	logger logrus.FieldLogger
	stats  *recorder
}

// New wraps original. Nothing is computed until the first Reevaluate or
// Resize.
func New(original *core.RasterImage, previewSize core.Size, opts ...Option) *ModifierPipeline {
	o := options{
		logger:        discardLogger(),
		hysteresis:    DefaultHysteresis,
		previewFilter: core.FilterNearest,
		evaluator:     metrics.NewEvaluator(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	p := &ModifierPipeline{
		original:    original,
		stack:       layers.NewStack(),
		previewSize: previewSize,
		active:      -1,
		opts:        o,
		logger:      o.logger,
		stats:       newRecorder(),
	}

	p.logger.WithFields(logrus.Fields{
		"original": original.Size().String(),
		"preview":  previewSize.String(),
	}).Debug("PIPELINE: created")
	return p
}

// PushModifier appends m to the end of the chain and returns its index.
func (p *ModifierPipeline) PushModifier(m modifiers.Modifier) int {
	index := p.stack.Push(m)
	p.generation++

	p.logger.WithFields(logrus.Fields{
		"index":    index,
		"modifier": m.String(),
	}).Debug("PIPELINE: modifier pushed")

	if p.base != nil {
		p.refold(index)
	}
	return index
}

// Resize records the new preview size and recomputes the caches only when
// the width changed by more than the hysteresis relative to what is shown.
func (p *ModifierPipeline) Resize(newSize core.Size) {
	if newSize == p.previewSize {
		return
	}
	p.previewSize = newSize

	if delta, ok := p.withinHysteresis(p.Current().Width(), newSize.W); ok {
		p.logger.WithFields(logrus.Fields{
			"size":  newSize.String(),
			"delta": delta,
		}).Debug("PIPELINE: resize within hysteresis, caches kept")
		return
	}
	p.Evaluate()
}

// withinHysteresis reports the relative width change from shown to wanted
// and whether it is small enough to keep what is shown.
func (p *ModifierPipeline) withinHysteresis(shown, wanted int) (float64, bool) {
	if shown <= 0 {
		return 0, false
	}
	delta := -(1 - float64(wanted)/float64(shown))
	return delta, math.Abs(delta) <= p.opts.hysteresis
}

// Evaluate builds the caches for the current preview size: on the resize
// job when the original is large enough, inline otherwise. A background
// build leaves the caches untouched until Poll installs its result.
func (p *ModifierPipeline) Evaluate() {
	if p.offload() {
		p.startBackground()
		return
	}
	p.Reevaluate()
}

// Reevaluate rebuilds base from the original at the preview size, folds every
// modifier over it and swaps both caches together.
func (p *ModifierPipeline) Reevaluate() {
	start := time.Now()

	base := p.original.Resize(p.previewSize, p.opts.previewFilter)
	var current *core.RasterImage
	if p.stack.Len() > 0 {
		current, _ = p.stack.Fold(base)
	} else {
		p.stack.Reset()
	}
	p.base, p.current = base, current
	p.stats.record(OpReevaluate, time.Since(start), nil)

	p.logger.WithFields(logrus.Fields{
		"size":       base.Size().String(),
		"modifiers":  p.stack.Len(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("PIPELINE: reevaluated")
}

func (p *ModifierPipeline) offload() bool {
	return p.opts.job != nil && p.opts.minPixels > 0 && p.original.Size().Pixels() >= p.opts.minPixels
}

func (p *ModifierPipeline) startBackground() {
	req := ResizeRequest{
		Source:     p.original,
		Target:     p.previewSize,
		Chain:      p.stack.Snapshot(),
		Generation: p.generation,
	}
	if !p.opts.job.Start(req, p.opts.onRepaint) {
		p.logger.WithField("size", p.previewSize.String()).Debug("PIPELINE: resize queued behind running job")
	}
}

// Poll installs a finished background result. It reports whether the caches
// changed. A result whose width is within the hysteresis of the preview size
// is installed as is; one further off is dropped and the job restarted for
// the current size.
func (p *ModifierPipeline) Poll() bool {
	if p.opts.job == nil {
		return false
	}

	result, err := p.opts.job.Collect()
	if err != nil {
		p.stats.record(OpBackgroundFailed, 0, err)
		p.logger.WithError(err).Error("PIPELINE: background resize failed, recomputing inline")
		p.Reevaluate()
		return true
	}
	if result == nil {
		return false
	}

	if _, ok := p.withinHysteresis(result.Target.W, p.previewSize.W); result.Target != p.previewSize && !ok {
		p.logger.WithFields(logrus.Fields{
			"result": result.Target.String(),
			"wanted": p.previewSize.String(),
		}).Debug("PIPELINE: discarding stale background result")
		p.stats.record(OpBackgroundStale, result.Elapsed, nil)
		p.startBackground()
		return false
	}

	p.base = result.Base
	p.stack.Reset()
	if result.Generation == p.generation {
		p.current = result.Current
	} else {
		p.logger.Debug("PIPELINE: modifiers changed during resize, refolding")
		p.current = nil
		if p.stack.Len() > 0 {
			p.current, _ = p.stack.Fold(p.base)
		}
	}

	p.stats.record(OpBackgroundInstall, result.Elapsed, nil)
	p.logger.WithFields(logrus.Fields{
		"job_id":     result.JobID.String(),
		"size":       result.Base.Size().String(),
		"elapsed_ms": result.Elapsed.Milliseconds(),
	}).Debug("PIPELINE: background result installed")
	return true
}

// Busy reports whether a background resize is in flight.
func (p *ModifierPipeline) Busy() bool {
	return p.opts.job != nil && p.opts.job.State() == StateRunning
}

// SetPercent changes the parameter of modifier i and refolds from i.
func (p *ModifierPipeline) SetPercent(i int, v float32) error {
	return p.Update(i, func(m *modifiers.Modifier) { m.SetPercent(v) })
}

// SetEnabled toggles modifier i and refolds from i.
func (p *ModifierPipeline) SetEnabled(i int, enabled bool) error {
	return p.Update(i, func(m *modifiers.Modifier) { m.SetEnabled(enabled) })
}

// Update runs fn against modifier i. When the modifier changed, current is
// refolded from i over the cached base; stages before i are reused.
func (p *ModifierPipeline) Update(i int, fn func(m *modifiers.Modifier)) error {
	m := p.stack.At(i)
	if m == nil {
		return fmt.Errorf("modifier index %d out of range [0,%d)", i, p.stack.Len())
	}

	before := *m
	fn(m)
	if *m == before {
		return nil
	}
	p.generation++

	p.logger.WithFields(logrus.Fields{
		"index":    i,
		"modifier": m.String(),
	}).Debug("PIPELINE: modifier changed")

	p.refold(i)
	return nil
}

func (p *ModifierPipeline) refold(from int) {
	if p.base == nil {
		p.Evaluate()
		return
	}

	start := time.Now()
	p.stack.Invalidate(from)
	current, applied := p.stack.Fold(p.base)
	if p.stack.Len() == 0 {
		current = nil
	}
	p.current = current
	p.stats.record(OpRefold, time.Since(start), nil)

	p.logger.WithFields(logrus.Fields{
		"from":       from,
		"applied":    applied,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("PIPELINE: refolded")
}

// SelectModifier marks modifier i as the one being edited; -1 clears it.
func (p *ModifierPipeline) SelectModifier(i int) error {
	if i < -1 || i >= p.stack.Len() {
		return fmt.Errorf("modifier index %d out of range [0,%d)", i, p.stack.Len())
	}
	p.active = i
	return nil
}

// Active is the selected modifier index or -1.
func (p *ModifierPipeline) Active() int {
	return p.active
}

// Current is the modified preview, falling back to base then original.
func (p *ModifierPipeline) Current() *core.RasterImage {
	if p.current != nil {
		return p.current
	}
	return p.Base()
}

// Base is the resized original, falling back to the original itself.
func (p *ModifierPipeline) Base() *core.RasterImage {
	if p.base != nil {
		return p.base
	}
	return p.original
}

func (p *ModifierPipeline) Original() *core.RasterImage {
	return p.original
}

func (p *ModifierPipeline) PreviewSize() core.Size {
	return p.previewSize
}

func (p *ModifierPipeline) State() CacheState {
	switch {
	case p.base == nil:
		return NoBase
	case p.current == nil:
		return BaseOnly
	default:
		return BaseAndCurrent
	}
}

// Modifier returns the live modifier i for read access, nil when out of range.
func (p *ModifierPipeline) Modifier(i int) *modifiers.Modifier {
	return p.stack.At(i)
}

// Modifiers returns the live modifiers in chain order. Mutate them through
// Update so the caches stay consistent.
func (p *ModifierPipeline) Modifiers() []*modifiers.Modifier {
	return p.stack.All()
}

func (p *ModifierPipeline) Len() int {
	return p.stack.Len()
}

// ApplyToOriginal folds the chain over the full-resolution original. The
// caches are left alone. The result may be Original itself when every
// modifier is neutral or disabled.
func (p *ModifierPipeline) ApplyToOriginal() *core.RasterImage {
	start := time.Now()
	result := p.stack.Snapshot().Fold(p.original)
	p.stats.record(OpApplyToOriginal, time.Since(start), nil)

	p.logger.WithFields(logrus.Fields{
		"size":       result.Size().String(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("PIPELINE: applied modifiers to original")
	return result
}

// Compare reports how far the current preview drifted from its base.
func (p *ModifierPipeline) Compare() metrics.Report {
	return p.opts.evaluator.GenerateReport(p.Base(), p.Current())
}

// Stats returns per operation counters and timings.
func (p *ModifierPipeline) Stats() map[string]OperationStats {
	return p.stats.snapshot()
}

// Close stops background work. The pipeline stays readable.
func (p *ModifierPipeline) Close() {
	if p.opts.job != nil {
		p.opts.job.Close()
	}
	p.logger.WithFields(p.stats.fields()).Debug("PIPELINE: closed")
}
