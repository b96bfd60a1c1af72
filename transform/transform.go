// Package transform provides byte-level codecs for wiring through
// spillkv.Func, letting a slow tier store compressed bytes instead of raw
// values.
//
// Grounded on codeGROOVE-dev/multicache's pkg/store/compress.Compressor
// interface (Encode/Decode/Extension over None/S2/Zstd), generalized here to
// also cover LZ4 via github.com/pierrec/lz4/v4, since that dependency
// appears in the reference set's go.sum graph without a consuming package of
// its own.
package transform

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/codeGROOVE-dev/spillkv"
)

// Codec compresses and decompresses byte slices, and names the file
// extension its compressed form would warrant on disk.
type Codec interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
	Extension() string
}

// None is a zero-copy passthrough codec, useful as a uniform default when a
// caller wants to select compression at runtime without special-casing "no
// compression".
type noneCodec struct{}

// None returns a Codec that performs no compression.
func None() Codec { return noneCodec{} }

func (noneCodec) Encode(data []byte) ([]byte, error) { return data, nil }
func (noneCodec) Decode(data []byte) ([]byte, error) { return data, nil }
func (noneCodec) Extension() string                  { return "" }

type s2Codec struct{}

// S2 returns a Codec using S2, a fast Snappy-compatible compressor — a good
// default when write throughput matters more than compression ratio.
func S2() Codec { return s2Codec{} }

func (s2Codec) Encode(data []byte) ([]byte, error) { return s2.Encode(nil, data), nil }
func (s2Codec) Decode(data []byte) ([]byte, error) { return s2.Decode(nil, data) }
func (s2Codec) Extension() string                  { return ".s" }

type zstdCodec struct {
	level zstd.EncoderLevel
}

// Zstd returns a Codec using zstd at the given compression level
// (zstd.SpeedFastest through zstd.SpeedBestCompression), trading CPU for a
// smaller on-disk footprint.
func Zstd(level int) Codec {
	return zstdCodec{level: zstd.EncoderLevel(level)}
}

func (c zstdCodec) Encode(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(c.level))
	if err != nil {
		return nil, fmt.Errorf("transform: new zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func (zstdCodec) Decode(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("transform: new zstd decoder: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("transform: zstd decode: %w", err)
	}
	return out, nil
}

func (zstdCodec) Extension() string { return ".z" }

type lz4Codec struct{}

// LZ4 returns a Codec using LZ4's frame format, the cheapest compression
// here in CPU terms.
func LZ4() Codec { return lz4Codec{} }

func (lz4Codec) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("transform: lz4 write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("transform: lz4 close: %w", err)
	}
	return buf.Bytes(), nil
}

func (lz4Codec) Decode(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("transform: lz4 read: %w", err)
	}
	return out, nil
}

func (lz4Codec) Extension() string { return ".lz4" }

// Compressed wraps d so that values are passed through codec on the way in
// and out, letting any Mapping[K, []byte] store compressed bytes while
// callers on the spillkv.Func side keep working with plain []byte values.
func Compressed[K comparable](d spillkv.Mapping[K, []byte], codec Codec) *spillkv.Func[K, []byte, []byte] {
	return spillkv.NewFunc[K, []byte, []byte](codec.Encode, codec.Decode, d)
}
