package pipeline

import (
	"cmp"
	"context"
	"iter"
	"slices"

	"github.com/kbukum/seqkit/errors"
)

// Number is the set of element types Sum and Product accept.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Sentinels for errors.Is. Matching is by error code.
var (
	ErrUnbounded       = errors.Unbounded("")
	ErrInvalidArgument = errors.InvalidArgument("", "")
)

func requireBounded[T any](p *Pipeline[T], op string) error {
	if p.Unbounded() {
		return errors.Unbounded(op)
	}
	return nil
}

// drive runs a traversal that needs the whole sequence.
func drive[T any](ctx context.Context, p *Pipeline[T], op string, fn func(T) bool) error {
	if err := requireBounded(p, op); err != nil {
		return err
	}
	return traverse(ctx, p, fn)
}

// --- Terminals ---

// ForEach calls fn for every value until fn returns false.
// Unbounded pipelines are rejected; use Seq or Drain to consume them.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(T) bool) error {
	return drive(ctx, p, "for_each", fn)
}

// Drain creates a Runnable that pulls all values and sends each to sink.
// The first sink error stops the run and is returned. Drain accepts cycled
// pipelines; such a run ends on a sink error or context cancellation.
func Drain[T any](p *Pipeline[T], sink func(context.Context, T) error) *Runnable {
	return &Runnable{
		run: func(ctx context.Context) error {
			var sinkErr error
			err := traverse(ctx, p, func(v T) bool {
				sinkErr = sink(ctx, v)
				return sinkErr == nil
			})
			if err != nil {
				return err
			}
			return sinkErr
		},
	}
}

// Fold combines all values into an accumulator seeded with init.
func Fold[T, R any](ctx context.Context, p *Pipeline[T], init R, fn func(R, T) R) (R, error) {
	acc := init
	err := drive(ctx, p, "fold", func(v T) bool {
		acc = fn(acc, v)
		return true
	})
	return acc, err
}

// Reduce is Fold seeded with the first value. ok is false for an empty
// pipeline.
func Reduce[T any](ctx context.Context, p *Pipeline[T], fn func(T, T) T) (result T, ok bool, err error) {
	err = drive(ctx, p, "reduce", func(v T) bool {
		if !ok {
			result, ok = v, true
			return true
		}
		result = fn(result, v)
		return true
	})
	return result, ok, err
}

// Collect runs the pipeline and returns all values as a slice.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	var result []T
	err := drive(ctx, p, "collect", func(v T) bool {
		result = append(result, v)
		return true
	})
	return result, err
}

// CollectInto hands the values to materialize and returns what it builds,
// for example slices.Sorted or maps.Collect over a Pipeline of pairs.
func CollectInto[T, C any](ctx context.Context, p *Pipeline[T], materialize func(iter.Seq[T]) C) (C, error) {
	var zero C
	if err := requireBounded(p, "collect"); err != nil {
		return zero, err
	}
	var err error
	out := materialize(func(yield func(T) bool) {
		err = traverse(ctx, p, yield)
	})
	if err != nil {
		return zero, err
	}
	return out, nil
}

// Count returns the number of values.
func Count[T any](ctx context.Context, p *Pipeline[T]) (int, error) {
	n := 0
	err := drive(ctx, p, "count", func(T) bool {
		n++
		return true
	})
	return n, err
}

// Sum adds all values. The sum of an empty pipeline is 0.
func Sum[T Number](ctx context.Context, p *Pipeline[T]) (T, error) {
	return Fold(ctx, p, T(0), func(a, b T) T { return a + b })
}

// Product multiplies all values. The product of an empty pipeline is 1.
func Product[T Number](ctx context.Context, p *Pipeline[T]) (T, error) {
	return Fold(ctx, p, T(1), func(a, b T) T { return a * b })
}

// Min returns the smallest value; the first one wins on ties.
func Min[T cmp.Ordered](ctx context.Context, p *Pipeline[T]) (T, bool, error) {
	return Reduce(ctx, p, func(a, b T) T {
		if b < a {
			return b
		}
		return a
	})
}

// Max returns the largest value; the last one wins on ties.
func Max[T cmp.Ordered](ctx context.Context, p *Pipeline[T]) (T, bool, error) {
	return Reduce(ctx, p, func(a, b T) T {
		if b >= a {
			return b
		}
		return a
	})
}

// MinBy returns the value with the smallest key; the first one wins on ties.
func MinBy[T any, K cmp.Ordered](ctx context.Context, p *Pipeline[T], key func(T) K) (T, bool, error) {
	return Reduce(ctx, p, func(a, b T) T {
		if key(b) < key(a) {
			return b
		}
		return a
	})
}

// MaxBy returns the value with the largest key; the last one wins on ties.
func MaxBy[T any, K cmp.Ordered](ctx context.Context, p *Pipeline[T], key func(T) K) (T, bool, error) {
	return Reduce(ctx, p, func(a, b T) T {
		if key(b) >= key(a) {
			return b
		}
		return a
	})
}

// Last returns the final value.
func Last[T any](ctx context.Context, p *Pipeline[T]) (T, bool, error) {
	return Reduce(ctx, p, func(_, b T) T { return b })
}

// Partition splits the values into those that satisfy fn and the rest,
// preserving order in both.
func Partition[T any](ctx context.Context, p *Pipeline[T], fn func(T) bool) (matched, rest []T, err error) {
	err = drive(ctx, p, "partition", func(v T) bool {
		if fn(v) {
			matched = append(matched, v)
		} else {
			rest = append(rest, v)
		}
		return true
	})
	return matched, rest, err
}

// Unzip splits a pipeline of pairs into two slices.
func Unzip[A, B any](ctx context.Context, p *Pipeline[Pair[A, B]]) (firsts []A, seconds []B, err error) {
	err = drive(ctx, p, "unzip", func(v Pair[A, B]) bool {
		firsts = append(firsts, v.First)
		seconds = append(seconds, v.Second)
		return true
	})
	return firsts, seconds, err
}

// First returns the first value. It stops after one value, so it also works
// on cycled pipelines.
func First[T any](ctx context.Context, p *Pipeline[T]) (result T, found bool, err error) {
	err = ForEach(ctx, Take(p, 1), func(v T) bool {
		result, found = v, true
		return false
	})
	return result, found, err
}

// Nth returns the value at position n. The n values before it are still
// evaluated, so on a cycled pipeline a large n runs until ctx is done.
func Nth[T any](ctx context.Context, p *Pipeline[T], n int) (T, bool, error) {
	if n < 0 {
		var zero T
		return zero, false, errors.InvalidArgument("n", "position must not be negative")
	}
	return First(ctx, Skip(p, n))
}

// IsEmpty reports whether the pipeline yields no values.
func IsEmpty[T any](ctx context.Context, p *Pipeline[T]) (bool, error) {
	_, found, err := First(ctx, p)
	return !found, err
}

// search finds the first value satisfying fn. A miss on an unbounded
// pipeline would never return, so those are rejected.
func search[T any](ctx context.Context, p *Pipeline[T], op string, fn func(T) bool) (T, bool, error) {
	if err := requireBounded(p, op); err != nil {
		var zero T
		return zero, false, err
	}
	return First(ctx, Filter(p, fn))
}

// Find returns the first value satisfying fn.
func Find[T any](ctx context.Context, p *Pipeline[T], fn func(T) bool) (T, bool, error) {
	return search(ctx, p, "find", fn)
}

// FindMap returns the first result fn reports as present.
func FindMap[T, O any](ctx context.Context, p *Pipeline[T], fn func(T) (O, bool)) (O, bool, error) {
	if err := requireBounded(p, "find_map"); err != nil {
		var zero O
		return zero, false, err
	}
	return First(ctx, FilterMap(p, fn))
}

// Position returns the index of the first value satisfying fn.
func Position[T any](ctx context.Context, p *Pipeline[T], fn func(T) bool) (int, bool, error) {
	pair, found, err := search(ctx, Enumerate(p), "position", func(v Pair[int, T]) bool {
		return fn(v.Second)
	})
	return pair.First, found, err
}

// Any reports whether some value satisfies fn.
func Any[T any](ctx context.Context, p *Pipeline[T], fn func(T) bool) (bool, error) {
	_, found, err := search(ctx, p, "any", fn)
	return found, err
}

// All reports whether every value satisfies fn. It is true for an empty
// pipeline.
func All[T any](ctx context.Context, p *Pipeline[T], fn func(T) bool) (bool, error) {
	_, found, err := search(ctx, p, "all", func(v T) bool { return !fn(v) })
	return !found, err
}

// Contains reports whether target occurs in the pipeline.
func Contains[T comparable](ctx context.Context, p *Pipeline[T], target T) (bool, error) {
	_, found, err := search(ctx, p, "contains", func(v T) bool { return v == target })
	return found, err
}

// Sorted collects the values in ascending order.
func Sorted[T cmp.Ordered](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	return CollectInto(ctx, p, slices.Sorted[T])
}
