package pipeline

import "context"

// stage is one deferred transformation step. The set of variants is closed:
// mapStage and filterStage are the only implementations.
type stage interface {
	variant()
}

// mapFunc transforms a value. It may call terminate to end the traversal;
// the value it returns on that call is discarded.
type mapFunc func(ctx context.Context, v any, terminate func()) (any, error)

// predicate decides whether a value is kept. A value is dropped when the
// predicate calls terminate, whatever it returns.
type predicate func(ctx context.Context, v any, terminate func()) (bool, error)

// mapStage never signals absence. When flat is set and the output is a
// Pipeline, the traversal splices it in place of the value.
type mapStage struct {
	flat bool
	open func(ctx context.Context) (mapFunc, func())
}

type filterStage struct {
	open func(ctx context.Context) (predicate, func())
}

func (mapStage) variant()    {}
func (filterStage) variant() {}

// fixed wraps a stage function that needs no per-traversal state.
func fixed[F mapFunc | predicate](fn F) func(context.Context) (F, func()) {
	return func(context.Context) (F, func()) { return fn, nil }
}

// live is a stage bound to one traversal. It owns the state the stage's
// factory created and the terminated flag.
type live struct {
	def        stage
	transform  mapFunc
	keep       predicate
	release    func()
	terminated bool
	owner      *frame
	stop       func()
}

func instantiate(ctx context.Context, st stage, owner *frame) *live {
	l := &live{def: st, owner: owner}
	l.stop = func() { l.terminated = true }
	switch s := st.(type) {
	case mapStage:
		l.transform, l.release = s.open(ctx)
	case filterStage:
		l.keep, l.release = s.open(ctx)
	}
	return l
}

// evaluate applies the stage to v. ok is false when the value is absent.
func (l *live) evaluate(ctx context.Context, v any) (out any, ok bool, err error) {
	if l.terminated {
		return nil, false, nil
	}
	switch l.def.(type) {
	case mapStage:
		out, err = l.transform(ctx, v, l.stop)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	case filterStage:
		var keep bool
		keep, err = l.keep(ctx, v, l.stop)
		if err != nil {
			return nil, false, err
		}
		if !keep || l.terminated {
			return nil, false, nil
		}
		return v, true, nil
	}
	return nil, false, nil
}

// flat reports whether present outputs of this stage are spliced.
func (l *live) flat() bool {
	m, ok := l.def.(mapStage)
	return ok && m.flat
}
