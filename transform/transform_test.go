package transform

import (
	"bytes"
	"testing"

	"github.com/codeGROOVE-dev/spillkv"
)

var sample = []byte(`{"key":"test-key","value":{"name":"sample","count":7}}`)

func TestCodecsRoundTrip(t *testing.T) {
	codecs := []struct {
		name string
		c    Codec
		ext  string
	}{
		{"None", None(), ""},
		{"S2", S2(), ".s"},
		{"Zstd", Zstd(1), ".z"},
		{"LZ4", LZ4(), ".lz4"},
	}

	for _, tc := range codecs {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := tc.c.Encode(sample)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := tc.c.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !bytes.Equal(decoded, sample) {
				t.Errorf("roundtrip failed: got %q, want %q", decoded, sample)
			}
			if tc.c.Extension() != tc.ext {
				t.Errorf("Extension() = %q, want %q", tc.c.Extension(), tc.ext)
			}
		})
	}
}

func TestCompressedThroughMapStore(t *testing.T) {
	backing := spillkv.NewMapStore[string, []byte]()
	wrapped := Compressed[string](backing, Zstd(3))

	if err := wrapped.Put("a", sample); err != nil {
		t.Fatal(err)
	}

	raw, err := backing.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(raw, sample) {
		t.Error("backing store should hold compressed bytes, not the raw value")
	}

	v, err := wrapped.Get("a")
	if err != nil || !bytes.Equal(v, sample) {
		t.Fatalf("Get(a) = %q, %v, want %q, nil", v, err, sample)
	}
}
