// Package formats encodes and decodes the engine's level files: DLF
// (entities and placements), FTS (geometry) and LLF (lighting), plus the
// PKWARE envelope shared by all three.
package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Kind identifies one of the three level file types.
type Kind int

const (
	KindDLF Kind = iota
	KindFTS
	KindLLF
)

// String returns the file extension of the kind, without the dot.
func (k Kind) String() string {
	switch k {
	case KindDLF:
		return "dlf"
	case KindFTS:
		return "fts"
	case KindLLF:
		return "llf"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindFromPath guesses the kind from a file extension.
func KindFromPath(path string) (Kind, error) {
	return ParseKind(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseKind converts a kind name such as "fts" to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "dlf":
		return KindDLF, nil
	case "fts":
		return KindFTS, nil
	case "llf":
		return KindLLF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// recordWriter writes little-endian records and keeps the first error.
type recordWriter struct {
	buf *bytes.Buffer
	err error
}

func newRecordWriter(sizeHint int) *recordWriter {
	buf := new(bytes.Buffer)
	buf.Grow(sizeHint)
	return &recordWriter{buf: buf}
}

func (w *recordWriter) write(v any) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.buf, binary.LittleEndian, v)
}

func (w *recordWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// readRecord reads one little-endian record, reporting truncation with the
// format's sentinel.
func readRecord(r io.Reader, v any, truncated error, what string) error {
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("%w: reading %s", truncated, what)
	}
	return nil
}

// checkCount rejects negative or absurd record counts before allocating.
func checkCount(n int32, remaining int, recordSize int, invalid error, what string) error {
	if n < 0 || int64(n)*int64(recordSize) > int64(remaining) {
		return fmt.Errorf("%w: %d %s", invalid, n, what)
	}
	return nil
}
