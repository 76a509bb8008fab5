package pkware

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Longest hash chain walked per position.
const maxChain = 256

type bitWriter struct {
	w   *bufio.Writer
	buf uint32
	n   uint
}

func (b *bitWriter) writeBits(v uint32, n uint) error {
	b.buf |= v << b.n
	b.n += n
	for b.n >= 8 {
		if err := b.w.WriteByte(byte(b.buf)); err != nil {
			return err
		}
		b.buf >>= 8
		b.n -= 8
	}
	return nil
}

func (b *bitWriter) writeCode(h *huffman, sym int) error {
	return b.writeBits(h.wire[sym], h.length[sym])
}

func (b *bitWriter) flush() error {
	if b.n > 0 {
		if err := b.w.WriteByte(byte(b.buf)); err != nil {
			return err
		}
		b.buf, b.n = 0, 0
	}
	return b.w.Flush()
}

// matcher finds earlier occurrences through hash chains keyed by the next
// two bytes.
type matcher struct {
	data   []byte
	window int
	head   []int32
	prev   []int32
}

func newMatcher(data []byte, window int) *matcher {
	m := &matcher{
		data:   data,
		window: window,
		head:   make([]int32, 1<<16),
		prev:   make([]int32, len(data)),
	}
	for i := range m.head {
		m.head[i] = -1
	}
	return m
}

func (m *matcher) key(i int) int {
	return int(m.data[i])<<8 | int(m.data[i+1])
}

func (m *matcher) insert(i int) {
	if i+1 >= len(m.data) {
		return
	}
	k := m.key(i)
	m.prev[i] = m.head[k]
	m.head[k] = int32(i)
}

// find returns the longest match at position i, or a zero length.
func (m *matcher) find(i int) (length, dist int) {
	limit := min(maxMatch, len(m.data)-i)
	if limit < minMatch {
		return 0, 0
	}

	cand := m.head[m.key(i)]
	for depth := 0; cand >= 0 && depth < maxChain; depth++ {
		d := i - int(cand)
		if d > m.window {
			break
		}
		l := minMatch
		for l < limit && m.data[int(cand)+l] == m.data[i+l] {
			l++
		}
		if l > length && (l > minMatch || d <= maxShortDistance) {
			length, dist = l, d
			if l == limit {
				break
			}
		}
		cand = m.prev[cand]
	}
	return length, dist
}

// Implode compresses data and writes the stream to w.
func Implode(w io.Writer, data []byte, mode Mode, dict DictSize) error {
	if mode != Binary && mode != ASCII {
		return errors.Wrapf(ErrInvalidMode, "mode %d", mode)
	}
	dictBits, err := dict.bits()
	if err != nil {
		return err
	}

	bw := &bitWriter{w: bufio.NewWriter(w)}
	if err := bw.writeBits(uint32(mode), 8); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if err := bw.writeBits(uint32(dictBits), 8); err != nil {
		return errors.Wrap(err, "writing header")
	}

	m := newMatcher(data, int(dict))
	for i := 0; i < len(data); {
		length, dist := m.find(i)
		if length >= minMatch {
			if err := writeMatch(bw, length, dist, dictBits); err != nil {
				return errors.Wrapf(err, "writing match at %d", i)
			}
			for end := i + length; i < end; i++ {
				m.insert(i)
			}
			continue
		}

		if err := writeLiteral(bw, mode, data[i]); err != nil {
			return errors.Wrapf(err, "writing literal at %d", i)
		}
		m.insert(i)
		i++
	}

	if err := writeEnd(bw); err != nil {
		return errors.Wrap(err, "writing end marker")
	}
	return errors.Wrap(bw.flush(), "flushing stream")
}

func writeLiteral(bw *bitWriter, mode Mode, b byte) error {
	if err := bw.writeBits(0, 1); err != nil {
		return err
	}
	if mode == ASCII {
		return bw.writeCode(litCode, int(b))
	}
	return bw.writeBits(uint32(b), 8)
}

func writeMatch(bw *bitWriter, length, dist int, dictBits uint) error {
	if err := writeLength(bw, length); err != nil {
		return err
	}
	shift := dictBits
	if length == minMatch {
		shift = 2
	}
	d := uint32(dist - 1)
	if err := bw.writeCode(distCode, int(d>>shift)); err != nil {
		return err
	}
	return bw.writeBits(d&(1<<shift-1), shift)
}

func writeEnd(bw *bitWriter) error {
	return writeLength(bw, endLength)
}

func writeLength(bw *bitWriter, length int) error {
	sym := lengthSymbol(length)
	if err := bw.writeBits(1, 1); err != nil {
		return err
	}
	if err := bw.writeCode(lenCode, sym); err != nil {
		return err
	}
	return bw.writeBits(uint32(length-lenBase[sym]), lenExtra[sym])
}

func lengthSymbol(length int) int {
	for sym, base := range lenBase {
		if length >= base && length < base+1<<lenExtra[sym] {
			return sym
		}
	}
	panic("pkware: match length out of range")
}
