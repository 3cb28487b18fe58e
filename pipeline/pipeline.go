package pipeline

import (
	"context"
	"iter"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Pipeline is a lazy chain of stages bound to a source.
// No work happens until values are pulled by a terminal operation.
//
// A Pipeline is never mutated after construction. Every intermediate
// operation returns a new Pipeline that shares the stage prefix of its input,
// so the same value can be extended in several directions and traversed any
// number of times. Each traversal gets its own stage state.
type Pipeline[T any] struct {
	source func(ctx context.Context) Iterator[any]
	stages []stage
	cycled bool

	// endless is set when a spliced operand of chain/prepend/append is
	// itself unbounded.
	endless bool
	// bounded is set by stages that cap the output (take, bounded slice,
	// compress, zip with a bounded partner).
	bounded bool
}

// Pair holds two values produced together by Zip or Enumerate.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Runnable is a fully-configured pipeline ready to execute.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run executes the pipeline until completion or context cancellation.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// Cycled reports whether the pipeline replays its source.
func (p *Pipeline[T]) Cycled() bool { return p.cycled }

// Unbounded reports whether a full traversal of p may never end. Terminal
// operations that need the whole sequence reject such pipelines.
//
// Only the pipeline's own source and stages are considered. Pipelines that a
// FlatMap produces during traversal are unknown when p is built, so an
// endless nested pipeline is not reported here; bound it with Take or stop
// the traversal through ctx.
func (p *Pipeline[T]) Unbounded() bool {
	return (p.cycled || p.endless) && !p.bounded
}

// with returns a copy of p carrying st as its last stage.
func with[I, O any](p *Pipeline[I], st stage) *Pipeline[O] {
	n := len(p.stages)
	return &Pipeline[O]{
		source:  p.source,
		stages:  append(p.stages[:n:n], st),
		cycled:  p.cycled,
		endless: p.endless,
		bounded: p.bounded,
	}
}

// --- Constructors ---

// From creates a pipeline from an existing Iterator. The iterator is consumed
// by the first traversal; later traversals see whatever it has left.
func From[T any](it Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{
		source: func(_ context.Context) Iterator[any] {
			return &erased[T]{it: it}
		},
	}
}

// FromSlice creates a pipeline from a slice of values.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		source: func(_ context.Context) Iterator[any] {
			return &sliceIter[T]{items: items}
		},
	}
}

// Of creates a pipeline over the given values.
func Of[T any](items ...T) *Pipeline[T] {
	return FromSlice(items)
}

// Empty returns a pipeline with no elements.
func Empty[T any]() *Pipeline[T] {
	return FromSlice[T](nil)
}

// FromFunc creates a pipeline from a factory that produces an Iterator.
// The factory is called once per traversal.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{
		source: func(ctx context.Context) Iterator[any] {
			return &erased[T]{it: fn(ctx)}
		},
	}
}

// FromSeq creates a pipeline over a standard library sequence. The sequence
// is ranged once per traversal.
func FromSeq[T any](seq iter.Seq[T]) *Pipeline[T] {
	return &Pipeline[T]{
		source: func(_ context.Context) Iterator[any] {
			next, stop := iter.Pull(seq)
			return &pullIter[T]{next: next, stop: stop}
		},
	}
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (any, bool, error) {
	if it.index >= len(it.items) {
		return nil, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

// erased adapts a typed Iterator to the untyped element stream the traversal
// works on.
type erased[T any] struct {
	it Iterator[T]
}

func (e *erased[T]) Next(ctx context.Context) (any, bool, error) {
	val, ok, err := e.it.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	return val, true, nil
}

func (e *erased[T]) Close() error { return e.it.Close() }

type pullIter[T any] struct {
	next func() (T, bool)
	stop func()
}

func (it *pullIter[T]) Next(ctx context.Context) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	val, ok := it.next()
	if !ok {
		return nil, false, nil
	}
	return val, true, nil
}

func (it *pullIter[T]) Close() error {
	it.stop()
	return nil
}

// cast converts an element carried through the traversal back to T.
// A nil interface value becomes the zero value of T.
func cast[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}
