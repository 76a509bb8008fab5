package pkware

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

type bitReader struct {
	r   io.ByteReader
	buf uint32
	n   uint
}

func (b *bitReader) bits(need uint) (uint32, error) {
	for b.n < need {
		c, err := b.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, ErrTruncatedData
			}
			return 0, err
		}
		b.buf |= uint32(c) << b.n
		b.n += 8
	}
	v := b.buf & (1<<need - 1)
	b.buf >>= need
	b.n -= need
	return v, nil
}

// decode reads one symbol. Codes arrive most significant bit first and
// inverted.
func (b *bitReader) decode(h *huffman) (int, error) {
	code, first, index := 0, 0, 0
	for l := 1; l <= maxBits; l++ {
		bit, err := b.bits(1)
		if err != nil {
			return 0, err
		}
		code |= int(bit ^ 1)
		count := h.count[l]
		if code < first+count {
			return h.symbol[index+code-first], nil
		}
		index += count
		first = (first + count) << 1
		code <<= 1
	}
	return 0, ErrInvalidCode
}

// Explode decompresses an imploded stream read from r.
func Explode(r io.Reader) ([]byte, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	in := &bitReader{r: br}

	mode, err := in.bits(8)
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	if Mode(mode) != Binary && Mode(mode) != ASCII {
		return nil, errors.Wrapf(ErrInvalidMode, "mode %d", mode)
	}
	dictBits, err := in.bits(8)
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	if dictBits < 4 || dictBits > 6 {
		return nil, errors.Wrapf(ErrInvalidDictSize, "%d bits", dictBits)
	}

	var out []byte
	for {
		flag, err := in.bits(1)
		if err != nil {
			return nil, errors.Wrapf(err, "at output offset %d", len(out))
		}

		if flag == 0 {
			lit, err := readLiteral(in, Mode(mode))
			if err != nil {
				return nil, errors.Wrapf(err, "literal at output offset %d", len(out))
			}
			out = append(out, lit)
			continue
		}

		length, err := readLength(in)
		if err != nil {
			return nil, errors.Wrapf(err, "length at output offset %d", len(out))
		}
		if length == endLength {
			return out, nil
		}

		shift := uint(dictBits)
		if length == minMatch {
			shift = 2
		}
		high, err := in.decode(distCode)
		if err != nil {
			return nil, errors.Wrapf(err, "distance at output offset %d", len(out))
		}
		low, err := in.bits(shift)
		if err != nil {
			return nil, errors.Wrapf(err, "distance at output offset %d", len(out))
		}
		dist := high<<shift + int(low) + 1
		if dist > len(out) {
			return nil, errors.Wrapf(ErrDistanceTooFar, "distance %d with %d bytes written", dist, len(out))
		}

		// byte by byte: the match may overlap what it produces
		from := len(out) - dist
		for i := 0; i < length; i++ {
			out = append(out, out[from+i])
		}
	}
}

func readLiteral(in *bitReader, mode Mode) (byte, error) {
	if mode == ASCII {
		sym, err := in.decode(litCode)
		return byte(sym), err
	}
	v, err := in.bits(8)
	return byte(v), err
}

func readLength(in *bitReader) (int, error) {
	sym, err := in.decode(lenCode)
	if err != nil {
		return 0, err
	}
	extra, err := in.bits(lenExtra[sym])
	if err != nil {
		return 0, err
	}
	return lenBase[sym] + int(extra), nil
}
