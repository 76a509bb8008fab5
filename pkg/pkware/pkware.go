// Package pkware implements the PKWARE Data Compression Library "implode"
// format and its inverse, "explode".
//
// A stream starts with two bytes: the literal mode (0 binary, 1 ASCII) and
// the dictionary size as a bit count (4, 5 or 6 for 1, 2 or 4 KiB). The rest
// is an LSB-first bit stream of literals and length/distance pairs ended by
// the reserved length 519.
package pkware

import (
	"bytes"

	"github.com/pkg/errors"
)

// Errors returned while decoding.
var (
	ErrInvalidMode     = errors.New("pkware: invalid literal mode")
	ErrInvalidDictSize = errors.New("pkware: invalid dictionary size")
	ErrTruncatedData   = errors.New("pkware: truncated data")
	ErrDistanceTooFar  = errors.New("pkware: distance too far back")
	ErrInvalidCode     = errors.New("pkware: invalid code")
)

// Mode is the literal encoding.
type Mode byte

const (
	// Binary stores literals as raw bytes.
	Binary Mode = 0
	// ASCII stores literals with a Huffman code tuned for text.
	ASCII Mode = 1
)

// DictSize is the sliding window size.
type DictSize int

const (
	Dict1K DictSize = 1024
	Dict2K DictSize = 2048
	Dict4K DictSize = 4096
)

// bits returns the size as stored in the header.
func (d DictSize) bits() (uint, error) {
	switch d {
	case Dict1K:
		return 4, nil
	case Dict2K:
		return 5, nil
	case Dict4K:
		return 6, nil
	default:
		return 0, errors.Wrapf(ErrInvalidDictSize, "%d bytes", int(d))
	}
}

// ImplodeBytes compresses data in memory.
func ImplodeBytes(data []byte, mode Mode, dict DictSize) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 16)
	if err := Implode(&buf, data, mode, dict); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExplodeBytes decompresses data in memory.
func ExplodeBytes(data []byte) ([]byte, error) {
	return Explode(bytes.NewReader(data))
}
