package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/arx-levelgen/pkg/pkware"
)

// Envelope errors.
var (
	ErrUnknownKind        = errors.New("unknown level file kind")
	ErrUnknownCompression = errors.New("unknown compression")
	ErrTruncatedHeader    = errors.New("data shorter than the uncompressed header")
)

// Compression tells which part of a file is imploded.
type Compression int

const (
	// None stores the file as is.
	None Compression = iota
	// Full implodes the whole file.
	Full
	// Partial keeps the header readable and implodes the rest.
	Partial
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Full:
		return "full"
	case Partial:
		return "partial"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// Implode settings used for every level file.
const (
	packMode = pkware.Binary
	packDict = pkware.Dict4K
)

// CompressionFor returns the compression the engine expects for a kind.
func CompressionFor(k Kind) Compression {
	if k == KindLLF {
		return Full
	}
	return Partial
}

// HeaderSize returns the length of the uncompressed header of an
// uncompressed file. For FTS it depends on the unique header count stored
// in the first header.
func HeaderSize(k Kind, data []byte) (int, error) {
	switch k {
	case KindDLF:
		if len(data) < dlfHeaderSize {
			return 0, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrTruncatedHeader, k, dlfHeaderSize, len(data))
		}
		return dlfHeaderSize, nil
	case KindFTS:
		if len(data) < ftsHeaderSize {
			return 0, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrTruncatedHeader, k, ftsHeaderSize, len(data))
		}
		count := int32(binary.LittleEndian.Uint32(data[ftsCountOffset:]))
		if count < 0 {
			return 0, fmt.Errorf("%w: negative unique header count %d", ErrTruncatedHeader, count)
		}
		size := ftsHeaderSize + int(count)*ftsUniqueHeaderSize
		if len(data) < size {
			return 0, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrTruncatedHeader, k, size, len(data))
		}
		return size, nil
	case KindLLF:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
}

// Pack writes data to w in the given compression. Partial splits at the
// header boundary and writes the header before the imploded remainder.
func Pack(w io.Writer, k Kind, data []byte, c Compression) error {
	switch c {
	case None:
		_, err := w.Write(data)
		return err
	case Full:
		return pkware.Implode(w, data, packMode, packDict)
	case Partial:
		size, err := HeaderSize(k, data)
		if err != nil {
			return err
		}
		if _, err := w.Write(data[:size]); err != nil {
			return err
		}
		return pkware.Implode(w, data[size:], packMode, packDict)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCompression, int(c))
	}
}

// PackBytes is Pack into memory.
func PackBytes(k Kind, data []byte, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 1024)
	if err := Pack(&buf, k, data, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unpack reverses Pack. The compression is the one CompressionFor gives
// for the kind, except for FTS files whose body already has the size
// recorded in the header: those were written uncompressed.
func Unpack(k Kind, data []byte) ([]byte, error) {
	c := CompressionFor(k)
	if k == KindFTS && isRawFTS(data) {
		c = None
	}
	return UnpackAs(k, data, c)
}

// UnpackAs reverses Pack with a known compression.
func UnpackAs(k Kind, data []byte, c Compression) ([]byte, error) {
	switch c {
	case None:
		return data, nil
	case Full:
		return pkware.ExplodeBytes(data)
	case Partial:
		// the header is stored as is, so the probe works on packed data too
		size, err := HeaderSize(k, data)
		if err != nil {
			return nil, err
		}
		body, err := pkware.ExplodeBytes(data[size:])
		if err != nil {
			return nil, fmt.Errorf("exploding %s body: %w", k, err)
		}
		out := make([]byte, 0, size+len(body))
		out = append(out, data[:size]...)
		return append(out, body...), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, int(c))
	}
}

func isRawFTS(data []byte) bool {
	size, err := HeaderSize(KindFTS, data)
	if err != nil {
		return false
	}
	want := int32(binary.LittleEndian.Uint32(data[ftsUncompressedSizeOffset:]))
	return int(want) == len(data)-size
}
