package pipeline

import (
	"context"
	"fmt"

	"github.com/kbukum/seqkit/errors"
)

// Windows emits every run of size consecutive values, advancing one value at
// a time. A pipeline with fewer than size values emits nothing. Each window is
// a fresh slice the caller may keep.
func Windows[T any](p *Pipeline[T], size int) (*Pipeline[[]T], error) {
	if size <= 0 {
		return nil, errors.InvalidArgument("size", fmt.Sprintf("window size must be positive, got %d", size))
	}
	return &Pipeline[[]T]{
		source: func(ctx context.Context) Iterator[any] {
			return &windowIter[T]{source: p.Iter(ctx), size: size}
		},
		endless: p.Unbounded(),
	}, nil
}

type windowIter[T any] struct {
	source Iterator[T]
	size   int
	buffer []T
}

func (it *windowIter[T]) Next(ctx context.Context) (any, bool, error) {
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		if len(it.buffer) == it.size {
			it.buffer = it.buffer[1:]
		}
		it.buffer = append(it.buffer, val)
		if len(it.buffer) == it.size {
			window := make([]T, it.size)
			copy(window, it.buffer)
			return window, true, nil
		}
	}
}

func (it *windowIter[T]) Close() error { return it.source.Close() }
