package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"testing"
	"time"
)

func TestFromSlice_Collect(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromSlice_Empty(t *testing.T) {
	p := FromSlice([]int{})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestFrom_Iterator(t *testing.T) {
	it := &listIter[string]{items: []string{"a", "b"}}
	p := From[string](it)
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("got %v, want [a b]", got)
	}
	if !it.closed {
		t.Error("expected source iterator to be closed after traversal")
	}
}

func TestFromFunc_CalledPerTraversal(t *testing.T) {
	calls := 0
	p := FromFunc(func(_ context.Context) Iterator[int] {
		calls++
		return &listIter[int]{items: []int{1, 2}}
	})
	ctx := context.Background()
	for range 2 {
		got, err := Collect(ctx, p)
		if err != nil {
			t.Fatal(err)
		}
		if !intSliceEqual(got, []int{1, 2}) {
			t.Errorf("got %v, want [1 2]", got)
		}
	}
	if calls != 2 {
		t.Errorf("factory called %d times, want 2", calls)
	}
}

func TestFromSeq(t *testing.T) {
	p := FromSeq(slices.Values([]int{4, 5, 6}))
	got, err := Collect(context.Background(), Take(p, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{4, 5}) {
		t.Errorf("got %v, want [4 5]", got)
	}
}

func TestMap(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	doubled := Map(p, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := Collect(context.Background(), doubled)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 4, 6}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMap_Error(t *testing.T) {
	errBad := errors.New("bad value")
	p := FromSlice([]int{1, 2, 3})
	fail := Map(p, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errBad
		}
		return n, nil
	})
	got, err := Collect(context.Background(), fail)
	if err != errBad {
		t.Fatalf("expected the closure error unchanged, got %v", err)
	}
	if !intSliceEqual(got, []int{1}) {
		t.Errorf("expected [1] before error, got %v", got)
	}
}

func TestMap_TypeConversion(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	strs := Map(p, func(_ context.Context, n int) (string, error) {
		return fmt.Sprintf("#%d", n), nil
	})
	got, err := Collect(context.Background(), strs)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"#1", "#2", "#3"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilter(t *testing.T) {
	p := FromSlice([]int{1, 2, 3, 4, 5, 6})
	evens := Filter(p, func(n int) bool { return n%2 == 0 })
	got, err := Collect(context.Background(), evens)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 4, 6}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilter_None(t *testing.T) {
	p := FromSlice([]int{1, 3, 5})
	evens := Filter(p, func(n int) bool { return n%2 == 0 })
	got, err := Collect(context.Background(), evens)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestFilterThenMap(t *testing.T) {
	evens := Filter(Of(1, 2, 3, 4, 5), func(n int) bool { return n%2 == 0 })
	tens := Map(evens, func(_ context.Context, n int) (int, error) { return n * 10, nil })
	got, err := Collect(context.Background(), tens)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{20, 40}) {
		t.Errorf("got %v, want [20 40]", got)
	}
}

func TestFilterMap(t *testing.T) {
	p := Of("1", "x", "3", "")
	nums := FilterMap(p, func(s string) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil
	})
	got, err := Collect(context.Background(), nums)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 3}) {
		t.Errorf("got %v, want [1 3]", got)
	}
}

func TestFlatMap(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	expanded := FlatMap(p, func(_ context.Context, n int) (*Pipeline[int], error) {
		return Of(n, n*10), nil
	})
	got, err := Collect(context.Background(), expanded)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 10, 2, 20, 3, 30}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFlatMap_EmptyInner(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	expanded := FlatMap(p, func(_ context.Context, n int) (*Pipeline[int], error) {
		switch n {
		case 2:
			return Empty[int](), nil
		case 3:
			return nil, nil
		}
		return Of(n), nil
	})
	got, err := Collect(context.Background(), expanded)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1}) {
		t.Errorf("got %v, want [1]", got)
	}
}

func TestFlatMap_Error(t *testing.T) {
	errBad := errors.New("no expansion")
	p := FlatMap(Of(1, 2), func(_ context.Context, n int) (*Pipeline[int], error) {
		if n == 2 {
			return nil, errBad
		}
		return Of(n), nil
	})
	if _, err := Collect(context.Background(), p); err != errBad {
		t.Errorf("expected closure error, got %v", err)
	}
}

func TestFlatMap_LaterStagesRunOnNestedValues(t *testing.T) {
	p := FlatMap(Of(1, 2), func(_ context.Context, n int) (*Pipeline[int], error) {
		return Of(n, n+10), nil
	})
	shifted := Map(Filter(p, func(n int) bool { return n > 1 }), func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := Collect(context.Background(), shifted)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{22, 4, 24}) {
		t.Errorf("got %v, want [22 4 24]", got)
	}
}

func TestFlatMap_TakeCountsAcrossNested(t *testing.T) {
	pulled := 0
	src := Tap(Of(1, 2, 3), func(context.Context, int) error {
		pulled++
		return nil
	})
	p := FlatMap(src, func(_ context.Context, n int) (*Pipeline[int], error) {
		return Of(n, n*10), nil
	})
	got, err := Collect(context.Background(), Take(p, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 10, 2}) {
		t.Errorf("got %v, want [1 10 2]", got)
	}
	if pulled != 2 {
		t.Errorf("expected traversal to stop inside the second nested pipeline, pulled %d", pulled)
	}
}

func TestFlatMap_NestedTerminationIsScoped(t *testing.T) {
	p := FlatMap(Of(1, 2, 3), func(_ context.Context, n int) (*Pipeline[int], error) {
		return Take(Cycle(Of(n)), 2), nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 1, 2, 2, 3, 3}) {
		t.Errorf("got %v, want [1 1 2 2 3 3]", got)
	}
}

func TestFlatMap_SharedNestedPipeline(t *testing.T) {
	inner := Take(Of(7, 8, 9), 2)
	p := FlatMap(Of(1, 2), func(context.Context, int) (*Pipeline[int], error) {
		return inner, nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{7, 8, 7, 8}) {
		t.Errorf("got %v, want [7 8 7 8]", got)
	}
}

func TestFlatMap_NestedCycleIsNotTracked(t *testing.T) {
	p := FlatMap(Take(Of(1), 1), func(_ context.Context, v int) (*Pipeline[int], error) {
		return Cycle(Of(v)), nil
	})
	if p.Unbounded() {
		t.Fatal("nested pipelines are not known at build time")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := Collect(ctx, p); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the endless nested traversal to stop on ctx, got %v", err)
	}

	got, err := Collect(context.Background(), Take(p, 3))
	if err != nil || !intSliceEqual(got, []int{1, 1, 1}) {
		t.Errorf("Take after FlatMap = %v, %v", got, err)
	}
}

func TestFlatMapSlice(t *testing.T) {
	p := FlatMapSlice(Of("ab", "", "c"), func(s string) []byte { return []byte(s) })
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abc" {
		t.Errorf("got %q, want \"abc\"", got)
	}
}

func TestFlatten(t *testing.T) {
	p := Flatten(Of(Of(1, 2), Empty[int](), Of(3)))
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestTap(t *testing.T) {
	var tapped []int
	p := FromSlice([]int{1, 2, 3})
	observed := Tap(p, func(_ context.Context, n int) error {
		tapped = append(tapped, n)
		return nil
	})
	got, err := Collect(context.Background(), observed)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
	if !intSliceEqual(tapped, []int{1, 2, 3}) {
		t.Errorf("tapped = %v, want [1 2 3]", tapped)
	}
}

func TestTap_Error(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	failing := Tap(p, func(_ context.Context, n int) error {
		if n == 2 {
			return errors.New("tap failed")
		}
		return nil
	})
	_, err := Collect(context.Background(), failing)
	if err == nil {
		t.Fatal("expected error from Tap")
	}
}

func TestScan(t *testing.T) {
	p := Scan(Of(1, 2, 3, 4), 0, func(acc, n int) int { return acc + n })
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 3, 6, 10}) {
		t.Errorf("got %v, want [1 3 6 10]", got)
	}
}

func TestRetraversal_StateIsPerTraversal(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		p    *Pipeline[int]
		want []int
	}{
		{"take", Take(Of(1, 2, 3, 4, 5), 3), []int{1, 2, 3}},
		{"take_while", TakeWhile(Of(1, 2, 3, 1), func(n int) bool { return n < 3 }), []int{1, 2}},
		{"slice", Slice(Of(1, 2, 3, 4, 5), 1, 3), []int{2, 3}},
		{"skip", Skip(Of(1, 2, 3), 1), []int{2, 3}},
		{"unique", Unique(Of(1, 1, 2, 1)), []int{1, 2}},
		{"step_by", Must(StepBy(Of(1, 2, 3, 4, 5), 2)), []int{1, 3, 5}},
		{"cycle", Take(Cycle(Of(1, 2)), 3), []int{1, 2, 1}},
		{"zip", Map(Zip(Of(1, 2, 3), Of(10, 20)), func(_ context.Context, p Pair[int, int]) (int, error) {
			return p.First + p.Second, nil
		}), []int{11, 22}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			first, err := Collect(ctx, tc.p)
			if err != nil {
				t.Fatal(err)
			}
			second, err := Collect(ctx, tc.p)
			if err != nil {
				t.Fatal(err)
			}
			if !intSliceEqual(first, tc.want) {
				t.Errorf("first traversal got %v, want %v", first, tc.want)
			}
			if !intSliceEqual(second, first) {
				t.Errorf("second traversal got %v, first got %v", second, first)
			}
		})
	}
}

func TestStructuralSharing(t *testing.T) {
	ctx := context.Background()
	base := Skip(Of(1, 2, 3, 4), 1)
	one := Take(base, 1)
	two := Take(base, 2)

	for _, tc := range []struct {
		p    *Pipeline[int]
		want []int
	}{
		{base, []int{2, 3, 4}},
		{one, []int{2}},
		{two, []int{2, 3}},
	} {
		got, err := Collect(ctx, tc.p)
		if err != nil {
			t.Fatal(err)
		}
		if !intSliceEqual(got, tc.want) {
			t.Errorf("got %v, want %v", got, tc.want)
		}
	}
}

func TestDrain_Run(t *testing.T) {
	var collected []int
	p := FromSlice([]int{1, 2, 3})
	r := Drain(p, func(_ context.Context, n int) error {
		collected = append(collected, n)
		return nil
	})
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(collected, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", collected)
	}
}

func TestDrain_SinkErrorStopsCycle(t *testing.T) {
	errFull := errors.New("full")
	var collected []int
	r := Drain(Cycle(Of(1, 2)), func(_ context.Context, n int) error {
		if len(collected) == 5 {
			return errFull
		}
		collected = append(collected, n)
		return nil
	})
	if err := r.Run(context.Background()); err != errFull {
		t.Fatalf("expected sink error, got %v", err)
	}
	if !intSliceEqual(collected, []int{1, 2, 1, 2, 1}) {
		t.Errorf("got %v, want [1 2 1 2 1]", collected)
	}
}

func TestForEach(t *testing.T) {
	var sum int
	p := FromSlice([]int{1, 2, 3})
	err := ForEach(context.Background(), p, func(n int) bool {
		sum += n
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum != 6 {
		t.Errorf("sum = %d, want 6", sum)
	}
}

func TestForEach_ConsumerStop(t *testing.T) {
	var visited []int
	err := ForEach(context.Background(), Of(1, 2, 3, 4, 5), func(n int) bool {
		visited = append(visited, n)
		return n < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(visited, []int{1, 2, 3}) {
		t.Errorf("visited = %v, want [1 2 3]", visited)
	}
}

func TestForEach_RejectsCycled(t *testing.T) {
	called := false
	err := ForEach(context.Background(), Cycle(Of(1)), func(int) bool {
		called = true
		return false
	})
	if !errors.Is(err, ErrUnbounded) {
		t.Fatalf("expected ErrUnbounded, got %v", err)
	}
	if called {
		t.Error("callback must not run when the call is rejected")
	}
}

func TestIter(t *testing.T) {
	p := FromSlice([]int{1, 2})
	ctx := context.Background()
	it := p.Iter(ctx)
	defer it.Close()

	v1, ok, err := it.Next(ctx)
	if err != nil || !ok || v1 != 1 {
		t.Errorf("first Next: val=%d ok=%v err=%v", v1, ok, err)
	}
	v2, ok, err := it.Next(ctx)
	if err != nil || !ok || v2 != 2 {
		t.Errorf("second Next: val=%d ok=%v err=%v", v2, ok, err)
	}
	_, ok, err = it.Next(ctx)
	if err != nil || ok {
		t.Errorf("third Next should be exhausted: ok=%v err=%v", ok, err)
	}
}

func TestIter_CycledCloseEarly(t *testing.T) {
	ctx := context.Background()
	it := Cycle(Of(1, 2)).Iter(ctx)
	var got []int
	for range 5 {
		v, ok, err := it.Next(ctx)
		if err != nil || !ok {
			t.Fatalf("unexpected end: ok=%v err=%v", ok, err)
		}
		got = append(got, v)
	}
	if err := it.Close(); err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 1, 2, 1}) {
		t.Errorf("got %v, want [1 2 1 2 1]", got)
	}
}

func TestSeq_Break(t *testing.T) {
	var got []int
	for v, err := range Cycle(Of(1, 2, 3)).Seq(context.Background()) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
		if len(got) == 4 {
			break
		}
	}
	if !intSliceEqual(got, []int{1, 2, 3, 1}) {
		t.Errorf("got %v, want [1 2 3 1]", got)
	}
}

func TestSeq_ErrorIsLast(t *testing.T) {
	errBad := errors.New("bad")
	p := Map(Of(1, 2), func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errBad
		}
		return n, nil
	})
	var vals []int
	var errs []error
	for v, err := range p.Seq(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		vals = append(vals, v)
	}
	if !intSliceEqual(vals, []int{1}) {
		t.Errorf("vals = %v, want [1]", vals)
	}
	if len(errs) != 1 || errs[0] != errBad {
		t.Errorf("errs = %v, want [bad]", errs)
	}
}

func TestContext_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, FromSlice([]int{1, 2, 3}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestContext_CancelStopsCycledDrain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := 0
	r := Drain(Cycle(Of(1)), func(context.Context, int) error {
		seen++
		if seen == 3 {
			cancel()
		}
		return nil
	})
	if err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if seen != 3 {
		t.Errorf("seen = %d, want 3", seen)
	}
}

func TestChained_Pipeline(t *testing.T) {
	// source → map → filter → tap → fold
	var tapped []int
	p := FromSlice([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	doubled := Map(p, func(_ context.Context, n int) (int, error) { return n * 2, nil })
	evens := Filter(doubled, func(n int) bool { return n%4 == 0 })
	observed := Tap(evens, func(_ context.Context, n int) error {
		tapped = append(tapped, n)
		return nil
	})

	sum, err := Fold(context.Background(), observed, 0, func(acc, n int) int { return acc + n })
	if err != nil {
		t.Fatal(err)
	}
	if sum != 60 {
		t.Errorf("expected 60, got %d", sum)
	}
	if !intSliceEqual(tapped, []int{4, 8, 12, 16, 20}) {
		t.Errorf("tapped = %v, want [4 8 12 16 20]", tapped)
	}
}

// --- helpers ---

type listIter[T any] struct {
	items  []T
	index  int
	closed bool
}

func (it *listIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *listIter[T]) Close() error {
	it.closed = true
	return nil
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
