package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// fakeFTS builds an uncompressed FTS-like buffer with count unique headers
// and a body of the given size.
func fakeFTS(count, body int) []byte {
	buf := make([]byte, ftsHeaderSize+count*ftsUniqueHeaderSize+body)
	binary.LittleEndian.PutUint32(buf[ftsCountOffset:], uint32(count))
	for i := ftsHeaderSize + count*ftsUniqueHeaderSize; i < len(buf); i++ {
		buf[i] = byte(i % 7)
	}
	return buf
}

func TestHeaderSize(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		data []byte
		want int
	}{
		{"dlf", KindDLF, make([]byte, dlfHeaderSize+10), 8520},
		{"fts without unique headers", KindFTS, fakeFTS(0, 10), 280},
		{"fts with two unique headers", KindFTS, fakeFTS(2, 10), 280 + 2*768},
		{"llf", KindLLF, []byte{1, 2, 3}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := HeaderSize(tc.kind, tc.data)
			if err != nil {
				t.Fatalf("HeaderSize() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("HeaderSize() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestHeaderSizeTruncated(t *testing.T) {
	if _, err := HeaderSize(KindDLF, make([]byte, 100)); !errors.Is(err, ErrTruncatedHeader) {
		t.Errorf("short DLF: error = %v, want ErrTruncatedHeader", err)
	}
	short := fakeFTS(3, 0)[:ftsHeaderSize+ftsUniqueHeaderSize]
	if _, err := HeaderSize(KindFTS, short); !errors.Is(err, ErrTruncatedHeader) {
		t.Errorf("short FTS: error = %v, want ErrTruncatedHeader", err)
	}
	if _, err := HeaderSize(Kind(9), nil); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind: error = %v, want ErrUnknownKind", err)
	}
}

func TestCompressionFor(t *testing.T) {
	if got := CompressionFor(KindLLF); got != Full {
		t.Errorf("CompressionFor(LLF) = %s, want full", got)
	}
	if got := CompressionFor(KindDLF); got != Partial {
		t.Errorf("CompressionFor(DLF) = %s, want partial", got)
	}
	if got := CompressionFor(KindFTS); got != Partial {
		t.Errorf("CompressionFor(FTS) = %s, want partial", got)
	}
}

func TestPackPartialKeepsHeader(t *testing.T) {
	data := fakeFTS(1, 5000)
	size := ftsHeaderSize + ftsUniqueHeaderSize

	packed, err := PackBytes(KindFTS, data, Partial)
	if err != nil {
		t.Fatalf("PackBytes() error = %v", err)
	}
	if !bytes.Equal(packed[:size], data[:size]) {
		t.Error("header was not kept as is")
	}
	if len(packed) >= len(data) {
		t.Errorf("packed size %d not smaller than %d", len(packed), len(data))
	}

	got, err := Unpack(KindFTS, packed)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Unpack() did not restore the original bytes")
	}
}

func TestPackRoundTrip(t *testing.T) {
	dlf := make([]byte, dlfHeaderSize+300)
	for i := range dlf {
		dlf[i] = byte(i * 31)
	}
	llf := bytes.Repeat([]byte{0xff, 0x80, 0x40, 0xff}, 1000)

	tests := []struct {
		kind Kind
		data []byte
	}{
		{KindDLF, dlf},
		{KindDLF, make([]byte, dlfHeaderSize)}, // empty body
		{KindLLF, llf},
		{KindLLF, nil},
	}

	for _, tc := range tests {
		packed, err := PackBytes(tc.kind, tc.data, CompressionFor(tc.kind))
		if err != nil {
			t.Fatalf("%s: PackBytes() error = %v", tc.kind, err)
		}
		got, err := Unpack(tc.kind, packed)
		if err != nil {
			t.Fatalf("%s: Unpack() error = %v", tc.kind, err)
		}
		if !bytes.Equal(got, tc.data) {
			t.Errorf("%s: round trip mismatch, got %d bytes want %d", tc.kind, len(got), len(tc.data))
		}
	}
}

func TestUnpackRawFTS(t *testing.T) {
	data := fakeFTS(0, 64)
	binary.LittleEndian.PutUint32(data[ftsUncompressedSizeOffset:], 64)

	packed, err := PackBytes(KindFTS, data, None)
	if err != nil {
		t.Fatalf("PackBytes() error = %v", err)
	}
	if !bytes.Equal(packed, data) {
		t.Fatal("None compression changed the data")
	}
	got, err := Unpack(KindFTS, packed)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("raw FTS was not passed through")
	}
}

func TestKindFromPath(t *testing.T) {
	tests := map[string]Kind{
		"level1.dlf":                KindDLF,
		"graph/levels/level1/x.LLF": KindLLF,
		"fast.fts":                  KindFTS,
	}
	for path, want := range tests {
		got, err := KindFromPath(path)
		if err != nil {
			t.Fatalf("KindFromPath(%q) error = %v", path, err)
		}
		if got != want {
			t.Errorf("KindFromPath(%q) = %s, want %s", path, got, want)
		}
	}
	if _, err := KindFromPath("level1.txt"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("KindFromPath(txt) error = %v, want ErrUnknownKind", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindDLF, KindFTS, KindLLF} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %s, %v; want %s", k.String(), got, err, k)
		}
	}
	if got, err := ParseKind("FTS"); err != nil || got != KindFTS {
		t.Errorf("ParseKind(FTS) = %s, %v; want fts", got, err)
	}
	if _, err := ParseKind(""); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(\"\") error = %v, want ErrUnknownKind", err)
	}
}
