// Package pipeline provides lazy, single-pass sequence pipelines.
//
// A Pipeline is a source plus an append-only list of stages. Nothing runs
// until a terminal operation traverses it; each traversal pulls source values
// one at a time and carries each through every stage before pulling the next.
// Stage state (counters, seen-sets, zip cursors) is created per traversal, so
// a Pipeline value can be traversed repeatedly with identical results.
//
// Every stage is either a map stage or a filter stage. Stages may end the
// whole traversal early (Take, TakeWhile, bounded Slice, Zip, Compress).
// FlatMap splices nested pipelines into the traversal: the stages after it
// run on each nested value. Cycle replays the source until a stage ends the
// traversal or a pass reads nothing.
//
// # Operators
//
//   - Map, Filter, FilterMap, Tap, Scan, Enumerate
//   - FlatMap, FlatMapSlice, Flatten, Chain, Prepend, Append
//   - Skip, SkipWhile, Take, TakeWhile, StepBy, Slice, Compress
//   - Zip, Unique, UniqueBy, Except, Intersect, Compact
//   - Cycle, Reverse, Chunk, Windows
//
// # Terminals
//
//   - Fold, Reduce, ForEach, Collect, CollectInto, Sorted
//   - Count, Sum, Product, Min, Max, MinBy, MaxBy, Last
//   - First, Nth, IsEmpty, Find, FindMap, Position, Any, All, Contains
//   - Partition, Unzip
//   - Seq, Iter and Drain for streaming consumption
//
// Operations that need the whole sequence return an UNBOUNDED_SEQUENCE error
// for a cycled pipeline that no later stage bounds. Invalid arguments such as
// a non-positive step are reported by the constructing call.
//
// # Usage
//
//	src := pipeline.FromSlice([]int{1, 2, 3, 4, 5})
//	evens := pipeline.Filter(src, func(n int) bool { return n%2 == 0 })
//	tens := pipeline.Map(evens, func(_ context.Context, n int) (int, error) {
//	    return n * 10, nil
//	})
//	results, _ := pipeline.Collect(ctx, tens) // [20 40]
//
// Cycling:
//
//	ring := pipeline.Take(pipeline.Cycle(pipeline.Of(1, 2, 3)), 7)
//	results, _ := pipeline.Collect(ctx, ring) // [1 2 3 1 2 3 1]
package pipeline
