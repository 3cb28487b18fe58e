package plan

import "path/filepath"

// Step operations.
const (
	OpMap       = "map"
	OpFilter    = "filter"
	OpTakeWhile = "take_while"
	OpSkipWhile = "skip_while"
	OpTake      = "take"
	OpSkip      = "skip"
	OpStepBy    = "step_by"
	OpSlice     = "slice"
	OpUnique    = "unique"
	OpCompact   = "compact"
	OpCompress  = "compress"
	OpExcept    = "except"
	OpIntersect = "intersect"
	OpChain     = "chain"
	OpPrepend   = "prepend"
	OpAppend    = "append"
	OpScan      = "scan"
	OpRepeat    = "repeat"
	OpChunk     = "chunk"
	OpWindow    = "window"
	OpCycle     = "cycle"
	OpReverse   = "reverse"
)

// Terminals.
const (
	TerminalCollect = "collect"
	TerminalCount   = "count"
	TerminalSum     = "sum"
	TerminalProduct = "product"
	TerminalMin     = "min"
	TerminalMax     = "max"
	TerminalFirst   = "first"
	TerminalLast    = "last"
	TerminalIsEmpty = "is_empty"
)

// MaxRangeElements caps the number of values a range source may produce.
const MaxRangeElements = 1_000_000

// MaxGroupSize caps n for repeat, chunk and window steps.
const MaxGroupSize = 100_000

// Plan is a declarative numeric pipeline.
type Plan struct {
	Name        string `mapstructure:"name" yaml:"name" toml:"name" validate:"required,max=64"`
	Description string `mapstructure:"description" yaml:"description,omitempty" toml:"description,omitempty"`
	Source      Source `mapstructure:"source" yaml:"source" toml:"source"`
	// Cycle replays the source forever, before any step runs.
	Cycle    bool   `mapstructure:"cycle" yaml:"cycle,omitempty" toml:"cycle,omitempty"`
	Steps    []Step `mapstructure:"steps" yaml:"steps,omitempty" toml:"steps,omitempty" validate:"dive"`
	Terminal string `mapstructure:"terminal" yaml:"terminal" toml:"terminal" validate:"required,oneof=collect count sum product min max first last is_empty"`

	// dir is the directory the plan was loaded from. Plans referenced by
	// name are looked up there unless the Builder has its own Loader.
	dir string
}

// Source is where a plan's values come from. At most one of Values, Range
// and Plan may be set; a plan with none of them has an empty source.
type Source struct {
	Values []float64 `mapstructure:"values" yaml:"values,omitempty" toml:"values,omitempty" validate:"omitempty,dive,finite"`
	Range  *Range    `mapstructure:"range" yaml:"range,omitempty" toml:"range,omitempty"`
	// Plan names another plan whose steps produce this plan's source. The
	// referenced plan's terminal is ignored.
	Plan string `mapstructure:"plan" yaml:"plan,omitempty" toml:"plan,omitempty"`
}

// Range produces Start, Start+Step, ... up to but excluding End.
type Range struct {
	Start float64 `mapstructure:"start" yaml:"start" toml:"start" validate:"finite"`
	End   float64 `mapstructure:"end" yaml:"end" toml:"end" validate:"finite"`
	// Step defaults to 1.
	Step float64 `mapstructure:"step" yaml:"step,omitempty" toml:"step,omitempty" validate:"finite"`
}

// Step is one operation applied to the pipeline. Which parameters an
// operation needs depends on Op.
type Step struct {
	Op     string    `mapstructure:"op" yaml:"op" toml:"op" validate:"required,oneof=map filter take_while skip_while take skip step_by slice unique compact compress except intersect chain prepend append scan repeat chunk window cycle reverse"`
	Fn     string    `mapstructure:"fn" yaml:"fn,omitempty" toml:"fn,omitempty"`
	Pred   string    `mapstructure:"pred" yaml:"pred,omitempty" toml:"pred,omitempty"`
	Agg    string    `mapstructure:"agg" yaml:"agg,omitempty" toml:"agg,omitempty"`
	Arg    *float64  `mapstructure:"arg" yaml:"arg,omitempty" toml:"arg,omitempty" validate:"omitempty,finite"`
	N      *int      `mapstructure:"n" yaml:"n,omitempty" toml:"n,omitempty" validate:"omitempty,gte=0"`
	Start  *int      `mapstructure:"start" yaml:"start,omitempty" toml:"start,omitempty" validate:"omitempty,gte=0"`
	End    *int      `mapstructure:"end" yaml:"end,omitempty" toml:"end,omitempty"`
	Mask   []bool    `mapstructure:"mask" yaml:"mask,omitempty" toml:"mask,omitempty"`
	Values []float64 `mapstructure:"values" yaml:"values,omitempty" toml:"values,omitempty" validate:"omitempty,dive,finite"`
}

// Dir returns the directory the plan was loaded from, or "." for plans that
// were parsed from memory.
func (p *Plan) Dir() string {
	if p.dir == "" {
		return "."
	}
	return p.dir
}

func (p *Plan) setPath(path string) {
	p.dir = filepath.Dir(path)
}

// wholeSequence reports whether the terminal must see every element, and
// therefore fails on a pipeline that may never end.
func wholeSequence(terminal string) bool {
	switch terminal {
	case TerminalFirst, TerminalIsEmpty:
		return false
	default:
		return true
	}
}

func intValue(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func floatValue(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
