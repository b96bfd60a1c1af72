package file

import (
	"errors"
	"testing"

	"github.com/codeGROOVE-dev/spillkv"
)

func TestStorePutGetDelete(t *testing.T) {
	s, err := New[string, int](t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Put("a", 42); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get("a")
	if err != nil || v != 42 {
		t.Fatalf("Get(a) = %v, %v, want 42, nil", v, err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if s.Contains("a") {
		t.Error("a should be gone after delete")
	}
	if _, err := s.Get("a"); !errors.Is(err, spillkv.ErrNotFound) {
		t.Errorf("Get(a) after delete = %v, want ErrNotFound", err)
	}
}

func TestStoreReindexesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	s1, err := New[string, string](dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Put("k", "v"); err != nil {
		t.Fatal(err)
	}

	s2, err := New[string, string](dir)
	if err != nil {
		t.Fatal(err)
	}
	if !s2.Contains("k") {
		t.Error("reopening the store should reindex existing files")
	}
	v, err := s2.Get("k")
	if err != nil || v != "v" {
		t.Fatalf("Get(k) = %v, %v, want v, nil", v, err)
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("valid-key_1.0:tag"); err != nil {
		t.Errorf("unexpected error for valid key: %v", err)
	}
	if err := ValidateKey("has space"); err == nil {
		t.Error("expected error for key with a space")
	}
}
