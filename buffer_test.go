package spillkv

import (
	"errors"
	"testing"
)

func weightIsValue(_ string, v int) float64 { return float64(v) }

func TestBufferPromotion(t *testing.T) {
	b := NewBuffer[string, int](10, NewMapStore[string, int](), NewMapStore[string, int](),
		WithBufferWeight[string, int](weightIsValue))

	must(t, b.Put("x", 1))
	must(t, b.Put("y", 2))
	must(t, b.Put("z", 8))

	if b.fast.Contains("x") {
		t.Error("x should have been demoted to slow")
	}
	if !b.slow.Contains("x") {
		t.Error("x should be in slow")
	}
	if !b.fast.Contains("y") || !b.fast.Contains("z") {
		t.Error("y and z should remain in fast")
	}

	v, err := b.Get("x")
	if err != nil || v != 1 {
		t.Fatalf("Get(x) = %v, %v, want 1, nil", v, err)
	}
	if !b.fast.Contains("x") {
		t.Error("x should have been restored to fast")
	}
}

func TestBufferRoundTrip(t *testing.T) {
	b := NewBuffer[string, int](100, NewMapStore[string, int](), NewMapStore[string, int]())
	must(t, b.Put("a", 1))
	must(t, b.Put("b", 2))

	for _, k := range []string{"a", "b"} {
		if !b.fast.Contains(k) {
			t.Errorf("%s should remain in fast (under weight cap)", k)
		}
	}
}

func TestBufferCallbackFailureKeepsConsistency(t *testing.T) {
	failing := errors.New("disk full")
	b := NewBuffer[string, int](10, NewMapStore[string, int](), NewMapStore[string, int](),
		WithBufferWeight[string, int](weightIsValue),
		WithFastToSlow[string, int](func(k string, v int) error {
			if v > 10 {
				return failing
			}
			return nil
		}))

	must(t, b.Put("x", 1))
	must(t, b.Put("y", 2))
	must(t, b.Put("z", 8))

	err := b.Put("w", 11)
	var cbErr *CallbackError
	if !errors.As(err, &cbErr) {
		t.Fatalf("Put(w, 11) = %v, want CallbackError", err)
	}

	if b.Len() != 4 {
		t.Errorf("Len() = %d, want 4", b.Len())
	}
	for _, k := range []string{"x", "y", "z", "w"} {
		if !b.Contains(k) {
			t.Errorf("%s should still be reachable after callback failure", k)
		}
	}
	if !b.fast.Contains("w") {
		t.Error("w should remain in fast since its demotion callback failed")
	}
}

func TestBufferKeepSlowDuplication(t *testing.T) {
	b := NewBuffer[string, int](10, NewMapStore[string, int](), NewMapStore[string, int](),
		WithBufferWeight[string, int](weightIsValue),
		WithKeepSlow[string, int](true))

	must(t, b.Put("x", 1))
	must(t, b.Put("y", 2))
	must(t, b.Put("z", 8))

	v, err := b.Get("x")
	if err != nil || v != 1 {
		t.Fatalf("Get(x) = %v, %v", v, err)
	}
	if !b.fast.Contains("x") {
		t.Error("x should be restored to fast")
	}
	if !b.slow.Contains("x") {
		t.Error("x should remain in slow under keep_slow")
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}
}

func TestBufferDeleteRemovesFromBothTiers(t *testing.T) {
	b := NewBuffer[string, int](10, NewMapStore[string, int](), NewMapStore[string, int](),
		WithBufferWeight[string, int](weightIsValue))

	must(t, b.Put("x", 1))
	must(t, b.Put("y", 2))
	must(t, b.Put("z", 8)) // pushes x to slow

	must(t, b.Delete("x"))
	if b.Contains("x") {
		t.Error("x should be gone after Delete")
	}
	if b.fast.Contains("x") || b.slow.Contains("x") {
		t.Error("x should be absent from both tiers")
	}
}

func TestBufferGetMissingNotFound(t *testing.T) {
	b := NewBuffer[string, int](10, NewMapStore[string, int](), NewMapStore[string, int]())
	if _, err := b.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestBufferIterationOrderFollowsKeys(t *testing.T) {
	b := NewBuffer[string, int](100, NewMapStore[string, int](), NewMapStore[string, int]())
	must(t, b.Put("a", 1))
	must(t, b.Put("b", 2))
	must(t, b.Put("c", 3))

	var got []string
	for k := range b.Keys() {
		got = append(got, k)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
