package plan

import (
	"fmt"
	"math"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/validation"
)

// Validate checks p against the field rules and the parameters each step
// operation needs. Failures are reported as one INVALID_PLAN error whose
// "fields" detail lists every problem.
func (b *Builder) Validate(p *Plan) error {
	v := validation.New()
	v.Merge("plan", validation.Validate(p))
	b.validateSource(v.At("source"), p.Source)
	for i, st := range p.Steps {
		b.validateStep(v.At(fmt.Sprintf("steps[%d]", i)), st)
	}

	appErr := v.Validate()
	if appErr == nil {
		return nil
	}
	name := p.Name
	if name == "" {
		name = "<unnamed>"
	}
	return errors.InvalidPlan(fmt.Sprintf("plan %s: %s", name, appErr.Message)).
		WithDetails(appErr.Details)
}

func (b *Builder) validateSource(v *validation.Validator, src Source) {
	set := 0
	if src.Values != nil {
		set++
	}
	if src.Range != nil {
		set++
	}
	if src.Plan != "" {
		set++
	}
	v.Custom(set <= 1, "", "must set at most one of values, range and plan")

	if r := src.Range; r != nil {
		rv := v.At("range")
		rv.Custom(r.Start == r.End || (r.End > r.Start) == (rangeStep(*r) > 0),
			"step", "must move from start towards end")
		rv.Custom(rangeLen(*r) <= MaxRangeElements, "", fmt.Sprintf("must produce at most %d values", MaxRangeElements))
	}
}

func (b *Builder) validateStep(v *validation.Validator, st Step) {
	switch st.Op {
	case OpMap:
		v.Needs(st.Fn != "", "fn", st.Op).OneOf("fn", st.Fn, b.registry.Funcs())
		if fn, ok := b.registry.Func(st.Fn); ok && fn.Binary {
			v.Needs(st.Arg != nil, "arg", st.Op)
		}
	case OpFilter, OpTakeWhile, OpSkipWhile:
		v.Needs(st.Pred != "", "pred", st.Op).OneOf("pred", st.Pred, b.registry.Predicates())
		if pred, ok := b.registry.Predicate(st.Pred); ok && pred.NeedsArg {
			v.Needs(st.Arg != nil, "arg", st.Op)
		}
	case OpScan:
		v.Needs(st.Fn != "", "fn", st.Op)
		if fn, ok := b.registry.Func(st.Fn); st.Fn != "" {
			v.Custom(ok && fn.Binary, "fn", "must be a two-argument function")
		}
	case OpTake, OpSkip, OpStepBy:
		v.Needs(st.N != nil, "n", st.Op)
	case OpRepeat:
		v.Needs(st.N != nil, "n", st.Op)
		validateGroupSize(v, st)
	case OpChunk, OpWindow:
		v.Needs(st.N != nil, "n", st.Op).
			Needs(st.Agg != "", "agg", st.Op).
			OneOf("agg", st.Agg, b.registry.Aggregates())
		validateGroupSize(v, st)
	case OpSlice:
		v.Needs(st.Start != nil, "start", st.Op)
		if st.Start != nil && st.End != nil && *st.End >= 0 {
			v.Custom(*st.End >= *st.Start, "end", "must not be before start")
		}
	case OpCompress:
		v.Needs(st.Mask != nil, "mask", st.Op)
	case OpExcept, OpIntersect, OpChain, OpPrepend, OpAppend:
		v.Needs(st.Values != nil, "values", st.Op)
	}
}

func validateGroupSize(v *validation.Validator, st Step) {
	if st.N != nil {
		v.Custom(*st.N <= MaxGroupSize, "n", fmt.Sprintf("must be at most %d for %s", MaxGroupSize, st.Op))
	}
}

// rangeLen returns how many values r produces.
func rangeLen(r Range) int {
	n := math.Ceil((r.End - r.Start) / rangeStep(r))
	if n <= 0 || math.IsNaN(n) {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func rangeStep(r Range) float64 {
	if r.Step == 0 {
		return 1
	}
	return r.Step
}
