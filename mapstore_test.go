package spillkv

import "testing"

func TestMapStoreBasics(t *testing.T) {
	m := NewMapStore[string, int]()
	must(t, m.Put("a", 1))
	if !m.Contains("a") {
		t.Error("a should be present")
	}
	v, err := m.Get("a")
	if err != nil || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, err)
	}
	must(t, m.Delete("a"))
	if m.Contains("a") {
		t.Error("a should be gone after delete")
	}
	if _, err := m.Get("a"); err == nil {
		t.Error("expected ErrNotFound")
	}
}

func TestMapStoreKeysOrder(t *testing.T) {
	m := NewMapStore[string, int]()
	must(t, m.Put("a", 1))
	must(t, m.Put("b", 2))
	must(t, m.Put("c", 3))

	var got []string
	for k := range m.Keys() {
		got = append(got, k)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
