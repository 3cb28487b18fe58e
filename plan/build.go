package plan

import (
	"context"
	"fmt"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/pipeline"
)

// Builder validates plans and turns them into pipelines.
type Builder struct {
	registry *Registry
	loader   Loader
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRegistry sets the registry step names are resolved against.
func WithRegistry(r *Registry) BuilderOption {
	return func(b *Builder) { b.registry = r }
}

// WithLoader sets the loader for plans referenced by source.plan. Without
// one, referenced plans are looked up next to the referencing plan.
func WithLoader(l Loader) BuilderOption {
	return func(b *Builder) { b.loader = l }
}

// NewBuilder creates a Builder using DefaultRegistry unless configured
// otherwise.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.registry == nil {
		b.registry = DefaultRegistry()
	}
	return b
}

// Validate checks p with a default Builder.
func (p *Plan) Validate() error {
	return NewBuilder().Validate(p)
}

// Build turns p into a pipeline with a default Builder.
func (p *Plan) Build() (*pipeline.Pipeline[float64], error) {
	return NewBuilder().Build(p)
}

// Build validates p and constructs its pipeline. Construction errors of the
// pipeline operations, such as a zero step_by or reverse over a cycle, are
// returned wrapped with the failing step and keep their error code.
func (b *Builder) Build(p *Plan) (*pipeline.Pipeline[float64], error) {
	return b.build(p, make(map[string]bool))
}

// Check builds p and additionally rejects a terminal that needs the whole
// sequence of a pipeline that may never end, the failure Run would report.
func (b *Builder) Check(p *Plan) (*pipeline.Pipeline[float64], error) {
	pl, err := b.Build(p)
	if err != nil {
		return nil, err
	}
	if wholeSequence(p.Terminal) && pl.Unbounded() {
		return nil, errors.Unbounded(p.Terminal).WithDetail("plan", p.Name)
	}
	return pl, nil
}

func (b *Builder) build(p *Plan, stack map[string]bool) (*pipeline.Pipeline[float64], error) {
	if err := b.Validate(p); err != nil {
		return nil, err
	}
	if stack[p.Name] {
		return nil, errors.InvalidPlan(fmt.Sprintf("plan %s: circular source reference", p.Name))
	}
	stack[p.Name] = true
	defer delete(stack, p.Name)

	pl, err := b.source(p, stack)
	if err != nil {
		return nil, err
	}
	if p.Cycle {
		pl = pipeline.Cycle(pl)
	}
	for i, st := range p.Steps {
		pl, err = b.step(pl, st)
		if err != nil {
			return nil, fmt.Errorf("plan %s: steps[%d] (%s): %w", p.Name, i, st.Op, err)
		}
	}
	return pl, nil
}

func (b *Builder) source(p *Plan, stack map[string]bool) (*pipeline.Pipeline[float64], error) {
	src := p.Source
	switch {
	case src.Range != nil:
		return rangeSource(*src.Range), nil
	case src.Plan != "":
		loader := b.loader
		if loader == nil {
			loader = NewFileLoader(p.Dir())
		}
		sub, err := loader.Load(src.Plan)
		if err != nil {
			return nil, fmt.Errorf("plan %s: loading source plan %q: %w", p.Name, src.Plan, err)
		}
		return b.build(sub, stack)
	default:
		return pipeline.FromSlice(src.Values), nil
	}
}

// rangeSource yields start + i*step, so long ranges do not accumulate
// rounding error.
func rangeSource(r Range) *pipeline.Pipeline[float64] {
	n, step := rangeLen(r), rangeStep(r)
	return pipeline.FromSeq(func(yield func(float64) bool) {
		for i := range n {
			if !yield(r.Start + float64(i)*step) {
				return
			}
		}
	})
}

func (b *Builder) step(pl *pipeline.Pipeline[float64], st Step) (*pipeline.Pipeline[float64], error) {
	arg := floatValue(st.Arg, 0)
	n := intValue(st.N, 0)

	switch st.Op {
	case OpMap:
		fn, _ := b.registry.Func(st.Fn)
		return pipeline.Map(pl, func(_ context.Context, x float64) (float64, error) {
			return fn.Apply(x, arg), nil
		}), nil
	case OpFilter:
		return pipeline.Filter(pl, b.predicate(st.Pred, arg)), nil
	case OpTakeWhile:
		return pipeline.TakeWhile(pl, b.predicate(st.Pred, arg)), nil
	case OpSkipWhile:
		return pipeline.SkipWhile(pl, b.predicate(st.Pred, arg)), nil
	case OpTake:
		return pipeline.Take(pl, n), nil
	case OpSkip:
		return pipeline.Skip(pl, n), nil
	case OpStepBy:
		return pipeline.StepBy(pl, n)
	case OpSlice:
		return pipeline.Slice(pl, intValue(st.Start, 0), intValue(st.End, -1)), nil
	case OpUnique:
		return pipeline.Unique(pl), nil
	case OpCompact:
		return pipeline.Compact(pl), nil
	case OpCompress:
		return pipeline.Compress(pl, st.Mask), nil
	case OpExcept:
		return pipeline.Except(pl, pipeline.FromSlice(st.Values))
	case OpIntersect:
		return pipeline.Intersect(pl, pipeline.FromSlice(st.Values))
	case OpChain:
		return pipeline.Chain(pl, pipeline.FromSlice(st.Values)), nil
	case OpPrepend:
		return pipeline.Prepend(pl, st.Values...), nil
	case OpAppend:
		return pipeline.Append(pl, st.Values...), nil
	case OpScan:
		fn, _ := b.registry.Func(st.Fn)
		return pipeline.Scan(pl, arg, fn.Apply), nil
	case OpRepeat:
		return pipeline.FlatMap(pl, func(_ context.Context, x float64) (*pipeline.Pipeline[float64], error) {
			return pipeline.Take(pipeline.Cycle(pipeline.Of(x)), n), nil
		}), nil
	case OpChunk:
		chunks, err := pipeline.Chunk(pl, n)
		if err != nil {
			return nil, err
		}
		return aggregate(chunks, b.aggregateFor(st.Agg)), nil
	case OpWindow:
		windows, err := pipeline.Windows(pl, n)
		if err != nil {
			return nil, err
		}
		return aggregate(windows, b.aggregateFor(st.Agg)), nil
	case OpCycle:
		return pipeline.Cycle(pl), nil
	case OpReverse:
		return pipeline.Reverse(pl)
	default:
		return nil, errors.InvalidPlan(fmt.Sprintf("unknown step operation %q", st.Op))
	}
}

func (b *Builder) predicate(name string, arg float64) func(float64) bool {
	pred, _ := b.registry.Predicate(name)
	return func(x float64) bool { return pred.Test(x, arg) }
}

func (b *Builder) aggregateFor(name string) Aggregate {
	agg, _ := b.registry.Aggregate(name)
	return agg
}

func aggregate(groups *pipeline.Pipeline[[]float64], agg Aggregate) *pipeline.Pipeline[float64] {
	return pipeline.Map(groups, func(_ context.Context, g []float64) (float64, error) {
		return agg(g), nil
	})
}
