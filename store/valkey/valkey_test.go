package valkey

import (
	"context"
	"os"
	"testing"
	"time"
)

func skipIfNoValkey(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		t.Skip("VALKEY_ADDR not set, skipping integration test")
	}
	return addr
}

func TestStorePutGetDelete(t *testing.T) {
	addr := skipIfNoValkey(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := New[string, int](ctx, "spillkv-test", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Put("a", 7); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get("a")
	if err != nil || v != 7 {
		t.Fatalf("Get(a) = %v, %v, want 7, nil", v, err)
	}
	if !s.Contains("a") {
		t.Error("a should be present")
	}
	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if s.Contains("a") {
		t.Error("a should be gone after delete")
	}
}

func TestValidateKey(t *testing.T) {
	addr := skipIfNoValkey(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := New[string, string](ctx, "spillkv-test", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.ValidateKey(""); err == nil {
		t.Error("expected error for empty key")
	}
	long := make([]byte, 513)
	if err := s.ValidateKey(string(long)); err == nil {
		t.Error("expected error for 513-byte key")
	}
}
