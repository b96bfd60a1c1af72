package spillkv

import "testing"

func TestSieveRoutesBySelector(t *testing.T) {
	small := NewMapStore[string, int]()
	large := NewMapStore[string, int]()
	mappings := map[bool]Mapping[string, int]{true: small, false: large}
	selector := func(_ string, v int) bool { return v < 100 }

	s := NewSieve[string, int, bool](mappings, selector)

	must(t, s.Put("a", 5))
	must(t, s.Put("b", 500))

	if !small.Contains("a") {
		t.Error("a should be routed to small")
	}
	if !large.Contains("b") {
		t.Error("b should be routed to large")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestSieveReroutesOnSelectorChange(t *testing.T) {
	small := NewMapStore[string, int]()
	large := NewMapStore[string, int]()
	mappings := map[bool]Mapping[string, int]{true: small, false: large}
	selector := func(_ string, v int) bool { return v < 100 }

	s := NewSieve[string, int, bool](mappings, selector)
	must(t, s.Put("a", 5))
	must(t, s.Put("a", 500))

	if small.Contains("a") {
		t.Error("a should have been removed from small after rerouting")
	}
	if !large.Contains("a") {
		t.Error("a should now be in large")
	}
}
