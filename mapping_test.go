package spillkv

import "testing"

func TestUpdateFrom(t *testing.T) {
	src := NewMapStore[string, int]()
	must(t, src.Put("a", 1))
	must(t, src.Put("b", 2))

	dst := NewMapStore[string, int]()
	if err := UpdateFrom[string, int](dst, src); err != nil {
		t.Fatal(err)
	}
	if dst.Len() != 2 {
		t.Errorf("Len() = %d, want 2", dst.Len())
	}
}

func TestUpdatePairs(t *testing.T) {
	dst := NewMapStore[string, int]()
	err := UpdatePairs[string, int](dst,
		Pair[string, int]{Key: "a", Value: 1},
		Pair[string, int]{Key: "b", Value: 2},
	)
	if err != nil {
		t.Fatal(err)
	}
	v, _ := dst.Get("b")
	if v != 2 {
		t.Errorf("Get(b) = %d, want 2", v)
	}
}
