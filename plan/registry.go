package plan

import (
	"math"
	"slices"
	"sort"
	"sync"
)

// Func transforms a value. Map steps call Apply(x, arg); scan steps call
// Apply(acc, x) and therefore need a Binary function.
type Func struct {
	Apply  func(x, arg float64) float64
	Binary bool
}

// Predicate tests a value, with arg as its optional parameter.
type Predicate struct {
	Test     func(x, arg float64) bool
	NeedsArg bool
}

// Aggregate reduces a non-empty chunk or window to one value.
type Aggregate func(values []float64) float64

// Registry provides named functions, predicates and aggregates for plan
// steps.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
	preds map[string]Predicate
	aggs  map[string]Aggregate
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Func),
		preds: make(map[string]Predicate),
		aggs:  make(map[string]Aggregate),
	}
}

// DefaultRegistry returns a new Registry holding the built-in names.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	binary := func(f func(a, b float64) float64) Func { return Func{Apply: f, Binary: true} }
	unary := func(f func(float64) float64) Func {
		return Func{Apply: func(x, _ float64) float64 { return f(x) }}
	}
	r.RegisterFunc("add", binary(func(a, b float64) float64 { return a + b }))
	r.RegisterFunc("sub", binary(func(a, b float64) float64 { return a - b }))
	r.RegisterFunc("mul", binary(func(a, b float64) float64 { return a * b }))
	r.RegisterFunc("div", binary(func(a, b float64) float64 { return a / b }))
	r.RegisterFunc("min", binary(math.Min))
	r.RegisterFunc("max", binary(math.Max))
	r.RegisterFunc("neg", unary(func(x float64) float64 { return -x }))
	r.RegisterFunc("abs", unary(math.Abs))
	r.RegisterFunc("square", unary(func(x float64) float64 { return x * x }))

	cmp := func(f func(x, arg float64) bool) Predicate { return Predicate{Test: f, NeedsArg: true} }
	is := func(f func(float64) bool) Predicate {
		return Predicate{Test: func(x, _ float64) bool { return f(x) }}
	}
	r.RegisterPredicate("even", is(func(x float64) bool { return math.Mod(x, 2) == 0 }))
	r.RegisterPredicate("odd", is(func(x float64) bool { return math.Abs(math.Mod(x, 2)) == 1 }))
	r.RegisterPredicate("positive", is(func(x float64) bool { return x > 0 }))
	r.RegisterPredicate("negative", is(func(x float64) bool { return x < 0 }))
	r.RegisterPredicate("nonzero", is(func(x float64) bool { return x != 0 }))
	r.RegisterPredicate("gt", cmp(func(x, arg float64) bool { return x > arg }))
	r.RegisterPredicate("ge", cmp(func(x, arg float64) bool { return x >= arg }))
	r.RegisterPredicate("lt", cmp(func(x, arg float64) bool { return x < arg }))
	r.RegisterPredicate("le", cmp(func(x, arg float64) bool { return x <= arg }))
	r.RegisterPredicate("eq", cmp(func(x, arg float64) bool { return x == arg }))
	r.RegisterPredicate("ne", cmp(func(x, arg float64) bool { return x != arg }))

	r.RegisterAggregate("sum", func(vs []float64) float64 {
		var s float64
		for _, v := range vs {
			s += v
		}
		return s
	})
	r.RegisterAggregate("mean", func(vs []float64) float64 {
		var s float64
		for _, v := range vs {
			s += v
		}
		return s / float64(len(vs))
	})
	r.RegisterAggregate("min", func(vs []float64) float64 { return slices.Min(vs) })
	r.RegisterAggregate("max", func(vs []float64) float64 { return slices.Max(vs) })
	r.RegisterAggregate("first", func(vs []float64) float64 { return vs[0] })
	r.RegisterAggregate("last", func(vs []float64) float64 { return vs[len(vs)-1] })
	return r
}

// RegisterFunc adds or replaces a function.
func (r *Registry) RegisterFunc(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// RegisterPredicate adds or replaces a predicate.
func (r *Registry) RegisterPredicate(name string, pred Predicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preds[name] = pred
}

// RegisterAggregate adds or replaces an aggregate.
func (r *Registry) RegisterAggregate(name string, agg Aggregate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggs[name] = agg
}

// Func retrieves a function by name.
func (r *Registry) Func(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Predicate retrieves a predicate by name.
func (r *Registry) Predicate(name string) (Predicate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.preds[name]
	return p, ok
}

// Aggregate retrieves an aggregate by name.
func (r *Registry) Aggregate(name string) (Aggregate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.aggs[name]
	return a, ok
}

// Funcs returns sorted names of all registered functions.
func (r *Registry) Funcs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.funcs)
}

// Predicates returns sorted names of all registered predicates.
func (r *Registry) Predicates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.preds)
}

// Aggregates returns sorted names of all registered aggregates.
func (r *Registry) Aggregates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.aggs)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
