package spillkv

import (
	"fmt"
	"testing"
)

func TestKeyMapTranslatesKeys(t *testing.T) {
	d := NewMapStore[string, int]()
	km := NewKeyMap[int, string, int](func(k int) string { return fmt.Sprintf("k%d", k) }, d)

	must(t, km.Put(1, 100))
	if !d.Contains("k1") {
		t.Error("underlying store should hold the translated key")
	}
	v, err := km.Get(1)
	if err != nil || v != 100 {
		t.Fatalf("Get(1) = %v, %v", v, err)
	}
	if km.Len() != 1 {
		t.Errorf("Len() = %d, want 1", km.Len())
	}

	must(t, km.Delete(1))
	if km.Contains(1) {
		t.Error("1 should be gone after Delete")
	}
	if d.Contains("k1") {
		t.Error("underlying entry should be gone after Delete")
	}
}

func TestKeyMapGetMissing(t *testing.T) {
	km := NewKeyMap[int, string, int](func(k int) string { return fmt.Sprintf("k%d", k) }, NewMapStore[string, int]())
	if _, err := km.Get(42); err == nil {
		t.Error("expected ErrNotFound")
	}
}
