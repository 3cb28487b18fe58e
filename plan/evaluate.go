package plan

import (
	"context"
	"fmt"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/pipeline"
)

// Evaluate applies terminal to pl and returns the terminal's value and the
// number of values it produced. See Result.Value for the value types.
func Evaluate(ctx context.Context, pl *pipeline.Pipeline[float64], terminal string) (any, int, error) {
	optional := func(v float64, ok bool, err error) (any, int, error) {
		if err != nil || !ok {
			return nil, 0, err
		}
		return v, 1, nil
	}

	switch terminal {
	case TerminalCollect:
		values, err := pipeline.Collect(ctx, pl)
		if err != nil {
			return nil, 0, err
		}
		if values == nil {
			values = []float64{}
		}
		return values, len(values), nil
	case TerminalCount:
		n, err := pipeline.Count(ctx, pl)
		if err != nil {
			return nil, 0, err
		}
		return n, 1, nil
	case TerminalSum:
		s, err := pipeline.Sum(ctx, pl)
		return optional(s, true, err)
	case TerminalProduct:
		p, err := pipeline.Product(ctx, pl)
		return optional(p, true, err)
	case TerminalMin:
		return optional(pipeline.Min(ctx, pl))
	case TerminalMax:
		return optional(pipeline.Max(ctx, pl))
	case TerminalFirst:
		return optional(pipeline.First(ctx, pl))
	case TerminalLast:
		return optional(pipeline.Last(ctx, pl))
	case TerminalIsEmpty:
		empty, err := pipeline.IsEmpty(ctx, pl)
		if err != nil {
			return nil, 0, err
		}
		return empty, 1, nil
	default:
		return nil, 0, errors.InvalidPlan(fmt.Sprintf("unknown terminal %q", terminal))
	}
}
