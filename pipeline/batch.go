package pipeline

import (
	"context"
	"fmt"

	"github.com/kbukum/seqkit/errors"
)

// Chunk groups consecutive values into slices of size values. The final chunk
// holds whatever is left and may be shorter.
//
// Chunk regroups the upstream traversal lazily, one chunk per pull, so it may
// follow a cycled pipeline.
func Chunk[T any](p *Pipeline[T], size int) (*Pipeline[[]T], error) {
	if size <= 0 {
		return nil, errors.InvalidArgument("size", fmt.Sprintf("chunk size must be positive, got %d", size))
	}
	return &Pipeline[[]T]{
		source: func(ctx context.Context) Iterator[any] {
			return &chunkIter[T]{source: p.Iter(ctx), size: size}
		},
		endless: p.Unbounded(),
	}, nil
}

// chunkPrealloc bounds the capacity reserved up front for one chunk; larger
// chunks grow as values arrive.
const chunkPrealloc = 64

type chunkIter[T any] struct {
	source Iterator[T]
	size   int
	err    error
	done   bool
}

func (it *chunkIter[T]) Next(ctx context.Context) (any, bool, error) {
	if it.err != nil {
		err := it.err
		it.err = nil
		it.done = true
		return nil, false, err
	}
	if it.done {
		return nil, false, nil
	}

	chunk := make([]T, 0, min(it.size, chunkPrealloc))
	for len(chunk) < it.size {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			if len(chunk) > 0 {
				// Emit the partial chunk; the error surfaces on the next call.
				it.err = err
				return chunk, true, nil
			}
			it.done = true
			return nil, false, err
		}
		if !ok {
			it.done = true
			if len(chunk) > 0 {
				return chunk, true, nil
			}
			return nil, false, nil
		}
		chunk = append(chunk, val)
	}
	return chunk, true, nil
}

func (it *chunkIter[T]) Close() error { return it.source.Close() }
