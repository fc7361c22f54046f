package pipeline

import (
	"errors"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-modifier-studio/internal/core"
	"image-modifier-studio/internal/layers"
	"image-modifier-studio/internal/modifiers"
)

const waitTimeout = 5 * time.Second

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for worker")
	}
}

func notifier() (chan struct{}, func()) {
	ch := make(chan struct{}, 4)
	return ch, func() { ch <- struct{}{} }
}

// gatedResizer blocks every call until release receives.
func gatedResizer(release <-chan struct{}) Resizer {
	return func(src *core.RasterImage, target core.Size) (*core.RasterImage, error) {
		<-release
		return src.Resize(target, core.FilterNearest), nil
	}
}

func request(src *core.RasterImage, target core.Size, chain layers.Chain) ResizeRequest {
	return ResizeRequest{Source: src, Target: target, Chain: chain, Generation: 7}
}

func TestResizeJobLifecycle(t *testing.T) {
	src := core.NewUniform(40, 20, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	exposure := modifiers.New(modifiers.KindExposure)
	exposure.SetPercent(20)

	release := make(chan struct{})
	finished, onFinished := notifier()
	job := NewResizeJob(WithResizer(gatedResizer(release)))
	defer job.Close()

	assert.Equal(t, StateIdle, job.State())
	require.True(t, job.Start(request(src, core.NewSize(20, 10), layers.Chain{exposure}), onFinished))
	assert.Equal(t, StateRunning, job.State())

	assert.False(t, job.Start(request(src, core.NewSize(10, 5), nil), onFinished), "second start while running")

	result, err := job.Collect()
	assert.NoError(t, err)
	assert.Nil(t, result, "nothing to collect while running")

	close(release)
	waitFor(t, finished)
	assert.Equal(t, StateReadyToCollect, job.State())

	result, err = job.Collect()
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, StateIdle, job.State())
	assert.Equal(t, core.NewSize(20, 10), result.Target)
	assert.Equal(t, uint64(7), result.Generation)
	assert.Equal(t, core.NewSize(20, 10), result.Base.Size())
	require.NotNil(t, result.Current)
	assert.True(t, result.Current.Equal(layers.Chain{exposure}.Fold(result.Base)))

	result, err = job.Collect()
	assert.NoError(t, err)
	assert.Nil(t, result, "second collect")
}

func TestResizeJobEmptyChainHasNoCurrent(t *testing.T) {
	src := core.NewRasterImage(8, 8)
	finished, onFinished := notifier()
	job := NewResizeJob()
	defer job.Close()

	require.True(t, job.Start(request(src, core.NewSize(4, 4), nil), onFinished))
	waitFor(t, finished)

	result, err := job.Collect()
	require.NoError(t, err)
	assert.Nil(t, result.Current)
	assert.Equal(t, core.NewSize(4, 4), result.Base.Size())
}

func TestResizeJobRestartDiscardsUncollected(t *testing.T) {
	src := core.NewRasterImage(16, 16)
	finished, onFinished := notifier()
	job := NewResizeJob()
	defer job.Close()

	require.True(t, job.Start(request(src, core.NewSize(8, 8), nil), onFinished))
	waitFor(t, finished)
	require.Equal(t, StateReadyToCollect, job.State())

	require.True(t, job.Start(request(src, core.NewSize(4, 4), nil), onFinished))
	waitFor(t, finished)

	result, err := job.Collect()
	require.NoError(t, err)
	assert.Equal(t, core.NewSize(4, 4), result.Target)
}

func TestResizeJobPanicIsRecovered(t *testing.T) {
	finished, onFinished := notifier()
	job := NewResizeJob(WithResizer(func(*core.RasterImage, core.Size) (*core.RasterImage, error) {
		panic("boom")
	}))
	defer job.Close()

	require.True(t, job.Start(request(core.NewRasterImage(4, 4), core.NewSize(2, 2), nil), onFinished))
	waitFor(t, finished)

	result, err := job.Collect()
	assert.Nil(t, result)
	var panicErr *WorkerPanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "boom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
	assert.Equal(t, StateIdle, job.State())

	// The job is usable again.
	assert.True(t, job.Start(request(core.NewRasterImage(4, 4), core.NewSize(2, 2), nil), onFinished))
	waitFor(t, finished)
}

func TestResizeJobResizerError(t *testing.T) {
	finished, onFinished := notifier()
	sentinel := errors.New("no memory")
	job := NewResizeJob(WithResizer(func(*core.RasterImage, core.Size) (*core.RasterImage, error) {
		return nil, sentinel
	}))
	defer job.Close()

	require.True(t, job.Start(request(core.NewRasterImage(4, 4), core.NewSize(2, 2), nil), onFinished))
	waitFor(t, finished)

	_, err := job.Collect()
	assert.ErrorIs(t, err, sentinel)
}

func TestResizeJobCloseWaitsForCallback(t *testing.T) {
	release := make(chan struct{})
	callbackDone := false
	job := NewResizeJob(WithResizer(gatedResizer(release)))

	require.True(t, job.Start(request(core.NewRasterImage(4, 4), core.NewSize(2, 2), nil), func() {
		time.Sleep(10 * time.Millisecond)
		callbackDone = true
	}))
	close(release)
	job.Close()

	assert.True(t, callbackDone)
	assert.Equal(t, StateIdle, job.State())
	assert.False(t, job.Start(request(core.NewRasterImage(4, 4), core.NewSize(2, 2), nil), nil), "start after close")
}

func TestIllegalTransitionPanics(t *testing.T) {
	job := NewResizeJob()
	assert.Panics(t, func() {
		job.mu.Lock()
		defer job.mu.Unlock()
		job.transition(StateReadyToCollect)
	})
	assert.Equal(t, "ready_to_collect", StateReadyToCollect.String())
}

// blockingCallback signals entered, then holds the worker inside onFinished
// until gate is closed. active counts callbacks in flight.
func blockingCallback(active *atomic.Int32, entered, gate chan struct{}) func() {
	return func() {
		active.Add(1)
		defer active.Add(-1)
		entered <- struct{}{}
		<-gate
	}
}

func TestCollectJoinsWorkerCallback(t *testing.T) {
	var active atomic.Int32
	entered, gate := make(chan struct{}, 1), make(chan struct{})
	job := NewResizeJob()
	defer job.Close()

	require.True(t, job.Start(request(core.NewRasterImage(8, 8), core.NewSize(4, 4), nil), blockingCallback(&active, entered, gate)))
	waitFor(t, entered)
	assert.Equal(t, StateReadyToCollect, job.State())

	collected := make(chan *ResizeResult, 1)
	go func() {
		result, _ := job.Collect()
		collected <- result
	}()
	assert.Never(t, func() bool { return len(collected) > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"collect returned while the worker was still in its callback")

	close(gate)
	select {
	case result := <-collected:
		require.NotNil(t, result)
		assert.Equal(t, int32(0), active.Load())
	case <-time.After(waitTimeout):
		t.Fatal("collect did not return")
	}
	assert.Equal(t, StateIdle, job.State())
}

func TestRestartJoinsPreviousWorker(t *testing.T) {
	var active atomic.Int32
	entered, gate := make(chan struct{}, 2), make(chan struct{})
	job := NewResizeJob()
	defer job.Close()

	src := core.NewRasterImage(8, 8)
	require.True(t, job.Start(request(src, core.NewSize(4, 4), nil), blockingCallback(&active, entered, gate)))
	waitFor(t, entered)

	started := make(chan bool, 1)
	go func() {
		started <- job.Start(request(src, core.NewSize(2, 2), nil), func() {
			assert.Equal(t, int32(0), active.Load(), "two workers alive at once")
			entered <- struct{}{}
		})
	}()
	assert.Never(t, func() bool { return len(started) > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"restart did not wait for the previous worker")

	close(gate)
	select {
	case ok := <-started:
		assert.True(t, ok)
	case <-time.After(waitTimeout):
		t.Fatal("restart did not return")
	}
	waitFor(t, entered)

	result, err := job.Collect()
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, core.NewSize(2, 2), result.Target)
}
