package pipeline

import (
	"context"
	"fmt"
	"iter"

	"github.com/kbukum/seqkit/errors"
)

// Map transforms each value using fn.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return with[I, O](p, mapStage{open: fixed[mapFunc](func(ctx context.Context, v any, _ func()) (any, error) {
		out, err := fn(ctx, cast[I](v))
		if err != nil {
			return nil, err
		}
		return out, nil
	})})
}

// Filter keeps only values that satisfy the predicate.
func Filter[T any](p *Pipeline[T], fn func(T) bool) *Pipeline[T] {
	return with[T, T](p, filterStage{open: fixed[predicate](func(_ context.Context, v any, _ func()) (bool, error) {
		return fn(cast[T](v)), nil
	})})
}

// option is the intermediate value of FilterMap.
type option struct {
	val any
	ok  bool
}

// FilterMap transforms each value and keeps only the results fn reports as
// present.
func FilterMap[I, O any](p *Pipeline[I], fn func(I) (O, bool)) *Pipeline[O] {
	wrapped := with[I, option](p, mapStage{open: fixed[mapFunc](func(_ context.Context, v any, _ func()) (any, error) {
		out, ok := fn(cast[I](v))
		return option{val: out, ok: ok}, nil
	})})
	present := with[option, option](wrapped, filterStage{open: fixed[predicate](func(_ context.Context, v any, _ func()) (bool, error) {
		return v.(option).ok, nil
	})})
	return with[option, O](present, mapStage{open: fixed[mapFunc](func(_ context.Context, v any, _ func()) (any, error) {
		return v.(option).val, nil
	})})
}

// FlatMap transforms each value into a pipeline whose elements replace it.
// The result is only as bounded as p: a cycled nested pipeline makes the
// traversal endless without Unbounded reporting it.
// The stages appended after FlatMap run on every nested element as part of the
// same traversal, so a later Take counts across all nested pipelines.
// A nil pipeline from fn is treated as empty.
func FlatMap[I, O any](p *Pipeline[I], fn func(context.Context, I) (*Pipeline[O], error)) *Pipeline[O] {
	return with[I, O](p, mapStage{flat: true, open: fixed[mapFunc](func(ctx context.Context, v any, _ func()) (any, error) {
		nested, err := fn(ctx, cast[I](v))
		if err != nil {
			return nil, err
		}
		if nested == nil {
			return Empty[O](), nil
		}
		return nested, nil
	})})
}

// FlatMapSlice is FlatMap for functions that return a slice.
func FlatMapSlice[I, O any](p *Pipeline[I], fn func(I) []O) *Pipeline[O] {
	return FlatMap(p, func(_ context.Context, v I) (*Pipeline[O], error) {
		return FromSlice(fn(v)), nil
	})
}

// Flatten splices every nested pipeline into the outer sequence.
func Flatten[T any](p *Pipeline[*Pipeline[T]]) *Pipeline[T] {
	return FlatMap(p, func(_ context.Context, nested *Pipeline[T]) (*Pipeline[T], error) {
		return nested, nil
	})
}

// Tap calls fn as a side-effect for each value, then passes the value through unchanged.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return with[T, T](p, mapStage{open: fixed[mapFunc](func(ctx context.Context, v any, _ func()) (any, error) {
		if err := fn(ctx, cast[T](v)); err != nil {
			return nil, err
		}
		return v, nil
	})})
}

// Scan emits every intermediate accumulator of a running fold.
func Scan[T, R any](p *Pipeline[T], init R, fn func(R, T) R) *Pipeline[R] {
	return with[T, R](p, mapStage{open: func(context.Context) (mapFunc, func()) {
		acc := init
		return func(_ context.Context, v any, _ func()) (any, error) {
			acc = fn(acc, cast[T](v))
			return acc, nil
		}, nil
	}})
}

// Skip drops the first n values. A negative n skips nothing.
func Skip[T any](p *Pipeline[T], n int) *Pipeline[T] {
	return with[T, T](p, filterStage{open: func(context.Context) (predicate, func()) {
		remaining := n
		return func(context.Context, any, func()) (bool, error) {
			if remaining > 0 {
				remaining--
				return false, nil
			}
			return true, nil
		}, nil
	}})
}

// SkipWhile drops values until fn first fails, then keeps everything.
func SkipWhile[T any](p *Pipeline[T], fn func(T) bool) *Pipeline[T] {
	return with[T, T](p, filterStage{open: func(context.Context) (predicate, func()) {
		skipping := true
		return func(_ context.Context, v any, _ func()) (bool, error) {
			if skipping && fn(cast[T](v)) {
				return false, nil
			}
			skipping = false
			return true, nil
		}, nil
	}})
}

// Take keeps the first n values and then ends the traversal. The traversal
// ends when the value after the n-th reaches this stage, so one extra upstream
// value is evaluated. A negative n keeps nothing.
func Take[T any](p *Pipeline[T], n int) *Pipeline[T] {
	out := with[T, T](p, filterStage{open: func(context.Context) (predicate, func()) {
		remaining := max(n, 0)
		return func(_ context.Context, _ any, terminate func()) (bool, error) {
			if remaining == 0 {
				terminate()
				return false, nil
			}
			remaining--
			return true, nil
		}, nil
	}})
	out.bounded = true
	return out
}

// TakeWhile keeps values while fn holds and ends the traversal at the first
// value that fails it.
func TakeWhile[T any](p *Pipeline[T], fn func(T) bool) *Pipeline[T] {
	return with[T, T](p, filterStage{open: fixed[predicate](func(_ context.Context, v any, terminate func()) (bool, error) {
		if !fn(cast[T](v)) {
			terminate()
			return false, nil
		}
		return true, nil
	})})
}

// StepBy keeps the values at positions 0, n, 2n, and so on.
func StepBy[T any](p *Pipeline[T], n int) (*Pipeline[T], error) {
	if n <= 0 {
		return nil, errors.InvalidArgument("step", fmt.Sprintf("step must be positive, got %d", n))
	}
	return with[T, T](p, filterStage{open: func(context.Context) (predicate, func()) {
		index := 0
		return func(context.Context, any, func()) (bool, error) {
			keep := index%n == 0
			index++
			return keep, nil
		}, nil
	}}), nil
}

// Slice keeps the values at positions [start, end). A negative end leaves the
// slice open, which preserves a cycled pipeline's unboundedness.
func Slice[T any](p *Pipeline[T], start, end int) *Pipeline[T] {
	start = max(start, 0)
	out := with[T, T](p, filterStage{open: func(context.Context) (predicate, func()) {
		index := 0
		return func(_ context.Context, _ any, terminate func()) (bool, error) {
			if end >= 0 && index >= end {
				terminate()
				return false, nil
			}
			keep := index >= start
			index++
			return keep, nil
		}, nil
	}})
	out.bounded = p.bounded || end >= 0
	return out
}

// Zip pairs each value with the next value of other. The traversal ends as
// soon as other runs out. other is traversed independently, once per
// traversal of the result.
func Zip[A, B any](p *Pipeline[A], other *Pipeline[B]) *Pipeline[Pair[A, B]] {
	out := with[A, Pair[A, B]](p, mapStage{open: func(ctx context.Context) (mapFunc, func()) {
		next, stop := iter.Pull2(other.Seq(ctx))
		return func(_ context.Context, v any, terminate func()) (any, error) {
			b, err, ok := next()
			if !ok {
				terminate()
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return Pair[A, B]{First: cast[A](v), Second: b}, nil
		}, stop
	}})
	out.bounded = p.bounded || !other.Unbounded()
	return out
}

// Enumerate pairs each value with its position, starting at 0.
func Enumerate[T any](p *Pipeline[T]) *Pipeline[Pair[int, T]] {
	return with[T, Pair[int, T]](p, mapStage{open: func(context.Context) (mapFunc, func()) {
		index := 0
		return func(_ context.Context, v any, _ func()) (any, error) {
			pair := Pair[int, T]{First: index, Second: cast[T](v)}
			index++
			return pair, nil
		}, nil
	}})
}

// Unique drops values already seen in the current traversal.
func Unique[T comparable](p *Pipeline[T]) *Pipeline[T] {
	return UniqueBy(p, func(v T) T { return v })
}

// UniqueBy drops values whose key was already seen in the current traversal.
func UniqueBy[T any, K comparable](p *Pipeline[T], key func(T) K) *Pipeline[T] {
	return with[T, T](p, filterStage{open: func(context.Context) (predicate, func()) {
		seen := make(map[K]struct{})
		return func(_ context.Context, v any, _ func()) (bool, error) {
			k := key(cast[T](v))
			if _, dup := seen[k]; dup {
				return false, nil
			}
			seen[k] = struct{}{}
			return true, nil
		}, nil
	}})
}

// Except drops values that occur in other.
func Except[T comparable](p, other *Pipeline[T]) (*Pipeline[T], error) {
	return membership(p, other, "except", false)
}

// Intersect keeps only values that occur in other.
func Intersect[T comparable](p, other *Pipeline[T]) (*Pipeline[T], error) {
	return membership(p, other, "intersect", true)
}

// membership filters p by presence in other. other is collected into a set
// the first time the stage sees a value.
func membership[T comparable](p, other *Pipeline[T], op string, want bool) (*Pipeline[T], error) {
	if other.Unbounded() {
		return nil, errors.Unbounded(op)
	}
	return with[T, T](p, filterStage{open: func(context.Context) (predicate, func()) {
		var set map[T]struct{}
		return func(ctx context.Context, v any, _ func()) (bool, error) {
			if set == nil {
				set = make(map[T]struct{})
				err := traverse(ctx, other, func(x T) bool {
					set[x] = struct{}{}
					return true
				})
				if err != nil {
					return false, err
				}
			}
			_, found := set[cast[T](v)]
			return found == want, nil
		}, nil
	}}), nil
}

// Compact drops zero values.
func Compact[T comparable](p *Pipeline[T]) *Pipeline[T] {
	var zero T
	return Filter(p, func(v T) bool { return v != zero })
}

// Compress keeps the values whose position is true in mask and ends the
// traversal when mask runs out.
func Compress[T any](p *Pipeline[T], mask []bool) *Pipeline[T] {
	out := with[T, T](p, filterStage{open: func(context.Context) (predicate, func()) {
		index := 0
		return func(_ context.Context, _ any, terminate func()) (bool, error) {
			if index >= len(mask) {
				terminate()
				return false, nil
			}
			keep := mask[index]
			index++
			return keep, nil
		}, nil
	}})
	out.bounded = true
	return out
}

// Chain yields all values of p, then of each of others in order.
func Chain[T any](p *Pipeline[T], others ...*Pipeline[T]) *Pipeline[T] {
	parts := make([]*Pipeline[T], 0, len(others)+1)
	parts = append(parts, p)
	parts = append(parts, others...)
	out := Flatten(FromSlice(parts))
	for _, part := range parts {
		if part.Unbounded() {
			out.endless = true
		}
	}
	return out
}

// Prepend yields items before the values of p.
func Prepend[T any](p *Pipeline[T], items ...T) *Pipeline[T] {
	return Chain(FromSlice(items), p)
}

// Append yields items after the values of p.
func Append[T any](p *Pipeline[T], items ...T) *Pipeline[T] {
	return Chain(p, FromSlice(items))
}

// Cycle replays the source indefinitely. A pass that reads no source value
// ends the traversal, so cycling an empty source yields nothing.
func Cycle[T any](p *Pipeline[T]) *Pipeline[T] {
	out := *p
	out.cycled = true
	return &out
}

// Reverse yields the values of p in reverse order. p is collected in full
// when a traversal of the result starts. Unbounded pipelines are rejected.
func Reverse[T any](p *Pipeline[T]) (*Pipeline[T], error) {
	if p.Unbounded() {
		return nil, errors.Unbounded("reverse")
	}
	return &Pipeline[T]{
		source: func(_ context.Context) Iterator[any] {
			return &reverseIter[T]{upstream: p}
		},
	}, nil
}

type reverseIter[T any] struct {
	upstream *Pipeline[T]
	items    []T
	loaded   bool
}

func (it *reverseIter[T]) Next(ctx context.Context) (any, bool, error) {
	if !it.loaded {
		items, err := Collect(ctx, it.upstream)
		if err != nil {
			return nil, false, err
		}
		it.items = items
		it.loaded = true
	}
	if len(it.items) == 0 {
		return nil, false, nil
	}
	last := it.items[len(it.items)-1]
	it.items = it.items[:len(it.items)-1]
	return last, true, nil
}

func (it *reverseIter[T]) Close() error { return nil }

// Must returns p or panics with err. It is meant for operations whose
// arguments are known to be valid, such as a constant step.
func Must[T any](p *Pipeline[T], err error) *Pipeline[T] {
	if err != nil {
		panic(err)
	}
	return p
}
