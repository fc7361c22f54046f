// Layers package: the ordered modifier stack and its per-stage fold cache
package layers

import (
	"image-modifier-studio/internal/core"
	"image-modifier-studio/internal/modifiers"
)

// Stack holds the modifiers in application order. stages[k] caches the
// output after modifiers [0..k] folded over base.
type Stack struct {
	modifiers []*modifiers.Modifier
	base      *core.RasterImage
	stages    []*core.RasterImage
}

func NewStack() *Stack {
	return &Stack{
		modifiers: make([]*modifiers.Modifier, 0),
	}
}

// Push appends a modifier and returns its index. Cached stages stay valid.
func (s *Stack) Push(m modifiers.Modifier) int {
	s.modifiers = append(s.modifiers, &m)
	return len(s.modifiers) - 1
}

func (s *Stack) Len() int {
	return len(s.modifiers)
}

// At returns the live modifier at index i, nil when out of range.
func (s *Stack) At(i int) *modifiers.Modifier {
	if i < 0 || i >= len(s.modifiers) {
		return nil
	}
	return s.modifiers[i]
}

// All returns the live modifiers in order.
func (s *Stack) All() []*modifiers.Modifier {
	result := make([]*modifiers.Modifier, len(s.modifiers))
	copy(result, s.modifiers)
	return result
}

// Invalidate drops cached stages from index from onwards.
func (s *Stack) Invalidate(from int) {
	if from < 0 {
		from = 0
	}
	if from < len(s.stages) {
		clear(s.stages[from:])
		s.stages = s.stages[:from]
	}
}

// Reset forgets the base and every cached stage.
func (s *Stack) Reset() {
	s.base = nil
	s.Invalidate(0)
}

// Cached is the number of valid cached stages.
func (s *Stack) Cached() int {
	return len(s.stages)
}

// Fold applies every modifier in order over base and returns the result with
// the number of modifiers that actually had to run. Stages cached for the
// same base are reused, so after Invalidate(i) only modifiers [i..] run.
func (s *Stack) Fold(base *core.RasterImage) (*core.RasterImage, int) {
	if base != s.base {
		s.Reset()
		s.base = base
	}

	acc := base
	if n := len(s.stages); n > 0 {
		acc = s.stages[n-1]
	}

	applied := 0
	for i := len(s.stages); i < len(s.modifiers); i++ {
		acc = s.modifiers[i].Apply(acc)
		s.stages = append(s.stages, acc)
		applied++
	}
	return acc, applied
}

// Snapshot copies the modifiers so they can be folded on another goroutine.
func (s *Stack) Snapshot() Chain {
	chain := make(Chain, len(s.modifiers))
	for i, m := range s.modifiers {
		chain[i] = *m
	}
	return chain
}

// Chain is an immutable copy of a stack's modifiers.
type Chain []modifiers.Modifier

// Fold applies the chain in order. img is not modified.
func (c Chain) Fold(img *core.RasterImage) *core.RasterImage {
	for i := range c {
		img = c[i].Apply(img)
	}
	return img
}
