// Package plan describes numeric pipelines declaratively and runs them.
//
// A plan names a source, an ordered list of steps, and a terminal:
//
//	name: evens-times-ten
//	source:
//	  values: [1, 2, 3, 4, 5]
//	steps:
//	  - op: filter
//	    pred: even
//	  - op: map
//	    fn: mul
//	    arg: 10
//	terminal: collect
//
// Plans are read from YAML, TOML or JSON with Load or Parse, checked with
// Builder.Validate, turned into a *pipeline.Pipeline[float64] with
// Builder.Build, and evaluated by a Runner, which logs the run and records
// a span and metrics for it. A plan's source may be the pipeline of another
// plan, looked up by name through a Loader.
//
// Plans are configuration. They describe how to construct a pipeline; they
// are not a serialized form of one.
package plan
