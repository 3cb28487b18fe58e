package pipeline

import (
	"context"
	"iter"
)

// spliceable is implemented by every *Pipeline so the traversal can splice a
// nested pipeline without knowing its element type.
type spliceable interface {
	bind(ctx context.Context, inherited []*live) *frame
}

// frame is one traversal over one source: the top-level pipeline, or a
// nested pipeline spliced in by a flat stage.
type frame struct {
	open   func(ctx context.Context) Iterator[any]
	cycled bool
	stages []*live
}

// consumerStop is returned in place of a stage when the consumer asks the
// traversal to stop.
var consumerStop = &live{}

// bind instantiates fresh stage state for one traversal of p. The inherited
// stages come from an enclosing frame and keep their state and owner.
func (p *Pipeline[T]) bind(ctx context.Context, inherited []*live) *frame {
	f := &frame{open: p.source, cycled: p.cycled}
	f.stages = make([]*live, 0, len(p.stages)+len(inherited))
	for _, st := range p.stages {
		f.stages = append(f.stages, instantiate(ctx, st, f))
	}
	f.stages = append(f.stages, inherited...)
	return f
}

// run drives the frame until its source is exhausted or a stage stops it.
// A cycled frame reopens its source after each pass unless that pass read
// nothing. The returned stage, if any, is the one that ended the traversal.
func (f *frame) run(ctx context.Context, yield func(any) bool) (*live, error) {
	defer f.release()
	for {
		src := f.open(ctx)
		n, stop, err := f.pass(ctx, src, yield)
		_ = src.Close()
		if err != nil || stop != nil {
			return stop, err
		}
		if !f.cycled || n == 0 {
			return nil, nil
		}
	}
}

func (f *frame) pass(ctx context.Context, src Iterator[any], yield func(any) bool) (int, *live, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, nil, err
		}
		v, ok, err := src.Next(ctx)
		if err != nil {
			return n, nil, err
		}
		if !ok {
			return n, nil, nil
		}
		n++
		stop, err := f.push(ctx, v, yield)
		if err != nil || stop != nil {
			return n, stop, err
		}
	}
}

// push carries one source element through the stages and hands it to yield.
func (f *frame) push(ctx context.Context, v any, yield func(any) bool) (*live, error) {
	for i, l := range f.stages {
		out, ok, err := l.evaluate(ctx, v)
		if err != nil {
			return nil, err
		}
		if l.terminated {
			return l, nil
		}
		if !ok {
			return nil, nil
		}
		if l.flat() {
			if nested, isPipeline := out.(spliceable); isPipeline {
				return f.splice(ctx, nested, f.stages[i+1:], yield)
			}
		}
		v = out
	}
	if !yield(v) {
		return consumerStop, nil
	}
	return nil, nil
}

// splice runs the remaining stages over every element of nested. A stop
// raised by one of nested's own stages only ends the sub-traversal.
func (f *frame) splice(ctx context.Context, nested spliceable, rest []*live, yield func(any) bool) (*live, error) {
	sub := nested.bind(ctx, rest)
	stop, err := sub.run(ctx, yield)
	if err != nil {
		return nil, err
	}
	if stop != nil && stop.owner == sub {
		return nil, nil
	}
	return stop, nil
}

func (f *frame) release() {
	for _, l := range f.stages {
		if l.owner == f && l.release != nil {
			l.release()
		}
	}
}

// traverse runs one full traversal of p, handing each element to yield until
// it returns false.
func traverse[T any](ctx context.Context, p *Pipeline[T], yield func(T) bool) error {
	_, err := p.bind(ctx, nil).run(ctx, func(v any) bool {
		return yield(cast[T](v))
	})
	return err
}

// --- Generator boundary ---

// Seq returns the pipeline as a standard library sequence. A traversal error
// is delivered once, as the last pair, with a zero value. Breaking out of the
// range loop stops the traversal, so Seq may drive a cycled pipeline.
func (p *Pipeline[T]) Seq(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		err := traverse(ctx, p, func(v T) bool {
			return yield(v, nil)
		})
		if err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Iter returns a pull Iterator over the pipeline. The caller must Close() it.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	next, stop := iter.Pull2(p.Seq(ctx))
	return &seqIter[T]{next: next, stop: stop}
}

type seqIter[T any] struct {
	next func() (T, error, bool)
	stop func()
}

func (it *seqIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	val, err, ok := it.next()
	if !ok {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return val, true, nil
}

func (it *seqIter[T]) Close() error {
	it.stop()
	return nil
}
