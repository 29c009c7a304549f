package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/okian/trackcast/internal/domain/model"
	"github.com/okian/trackcast/pkg/metrics"
)

func key(player string) model.Key {
	return model.Key{Game: model.Some("g"), Play: model.Some("p"), Player: model.Some(player)}
}

func TestMemStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer func() { _ = store.Close() }()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if _, ok := store.Get(ctx, key("1")); ok {
		t.Error("expected unseen key to be absent")
	}

	st := model.State{X: model.Some(1.0), Y: model.Some(2.0), VX: 0.5, Frame: model.Some(int64(3))}
	store.Upsert(ctx, key("1"), st)

	got, ok := store.Get(ctx, key("1"))
	if !ok {
		t.Fatal("expected key to be present after upsert")
	}
	if got != st {
		t.Errorf("expected %+v, got %+v", st, got)
	}

	// Overwrite is unconditional.
	st2 := model.State{VX: 9}
	store.Upsert(ctx, key("1"), st2)
	got, _ = store.Get(ctx, key("1"))
	if got != st2 {
		t.Errorf("expected overwrite to %+v, got %+v", st2, got)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}

func TestMemStore_Lookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer func() { _ = store.Close() }()

	if _, err := store.Lookup(ctx, key("missing")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	store.Upsert(ctx, key("1"), model.State{VY: 1})
	entry, err := store.Lookup(ctx, key("1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Key != key("1") || entry.State.VY != 1 {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestMemStore_AbsentComponentsAreDistinct(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer func() { _ = store.Close() }()

	store.Upsert(ctx, model.Key{}, model.State{VX: 1})
	store.Upsert(ctx, model.Key{Game: model.Some("")}, model.State{VX: 2})

	a, _ := store.Get(ctx, model.Key{})
	b, _ := store.Get(ctx, model.Key{Game: model.Some("")})
	if a.VX != 1 || b.VX != 2 {
		t.Errorf("expected distinct buckets, got %v and %v", a.VX, b.VX)
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

func TestMemStore_UnboundedKeepsEverything(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx, WithMaxEntities(0))
	defer func() { _ = store.Close() }()

	const n = 5000
	for i := 0; i < n; i++ {
		store.Upsert(ctx, key(fmt.Sprint(i)), model.State{})
	}
	if count := store.Count(ctx); count != n {
		t.Errorf("expected count %d, got %d", n, count)
	}
}

func TestMemStore_BoundedEvictsLeastRecentlyTouched(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx, WithMaxEntities(2))
	defer func() { _ = store.Close() }()

	store.Upsert(ctx, key("a"), model.State{})
	store.Upsert(ctx, key("b"), model.State{})

	// Touch a so b becomes the oldest.
	if _, ok := store.Get(ctx, key("a")); !ok {
		t.Fatal("expected a to be present")
	}
	store.Upsert(ctx, key("c"), model.State{})

	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
	if _, ok := store.Get(ctx, key("b")); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := store.Get(ctx, key("a")); !ok {
		t.Error("expected a to survive")
	}
	if _, ok := store.Get(ctx, key("c")); !ok {
		t.Error("expected c to be present")
	}
}

func TestMemStore_LookupDoesNotTouch(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx, WithMaxEntities(2))
	defer func() { _ = store.Close() }()

	store.Upsert(ctx, key("a"), model.State{})
	store.Upsert(ctx, key("b"), model.State{})

	if _, err := store.Lookup(ctx, key("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.Upsert(ctx, key("c"), model.State{})

	if _, err := store.Lookup(ctx, key("a")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected a to be evicted despite the lookup, got %v", err)
	}
	if _, err := store.Lookup(ctx, key("b")); err != nil {
		t.Errorf("expected b to survive, got %v", err)
	}
}

func TestMemStore_BoundedCountsEvictions(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx, WithMaxEntities(3))
	defer func() { _ = store.Close() }()

	before := evictions(t)
	for i := 0; i < 10; i++ {
		store.Upsert(ctx, key(fmt.Sprint(i)), model.State{})
	}
	// Updating a resident entity never evicts.
	store.Upsert(ctx, key("9"), model.State{VX: 1})

	if got := evictions(t) - before; got != 7 {
		t.Errorf("expected 7 evictions, got %v", got)
	}
	if count := store.Count(ctx); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func evictions(t *testing.T) float64 {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if strings.HasSuffix(mf.GetName(), "store_evictions_total") {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	return 0
}

func TestMemStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx, WithMaxEntities(1000))
	defer func() { _ = store.Close() }()

	const goroutines = 10
	const perGoroutine = 100
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				k := key(fmt.Sprintf("%d-%d", g, i))
				store.Upsert(ctx, k, model.State{VX: float64(i)})
				store.Get(ctx, k)
			}
		}(g)
	}
	wg.Wait()

	if count := store.Count(ctx); count != goroutines*perGoroutine {
		t.Errorf("expected count %d, got %d", goroutines*perGoroutine, count)
	}
}

func TestMemStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemStore(context.Background())
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}

func BenchmarkMemStore_Upsert(b *testing.B) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer func() { _ = store.Close() }()
	keys := make([]model.Key, 1024)
	for i := range keys {
		keys[i] = key(fmt.Sprint(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		st, _ := store.Get(ctx, k)
		st.VX++
		store.Upsert(ctx, k, st)
	}
}

func BenchmarkMemStore_BoundedUpsert(b *testing.B) {
	ctx := context.Background()
	store := NewMemStore(ctx, WithMaxEntities(512))
	defer func() { _ = store.Close() }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Upsert(ctx, key(fmt.Sprint(i%2048)), model.State{})
	}
}
