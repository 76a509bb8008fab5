package pkware

const maxBits = 13

// Code lengths of the fixed Huffman tables, run-length packed: each byte is
// (repeat-1)<<4 | length.
var (
	litLengths = []byte{
		11, 124, 8, 7, 28, 7, 188, 13, 76, 4, 10, 8, 12, 10, 12, 10, 8, 23, 8,
		9, 7, 6, 7, 8, 7, 6, 55, 8, 23, 24, 12, 11, 7, 9, 11, 12, 6, 7, 22, 5,
		7, 24, 6, 11, 9, 6, 7, 22, 7, 11, 38, 7, 9, 8, 25, 11, 8, 11, 9, 12,
		8, 12, 5, 38, 5, 38, 5, 11, 7, 5, 6, 21, 6, 10, 53, 8, 7, 24, 10, 27,
		44, 253, 253, 253, 252, 252, 252, 13, 12, 45, 12, 45, 12, 61, 12, 45,
		44, 173,
	}
	lenLengths  = []byte{2, 35, 36, 53, 38, 23}
	distLengths = []byte{2, 20, 53, 230, 247, 151, 248}
)

// Match length symbols: length = lenBase[sym] + extra bits.
var (
	lenBase  = [16]int{3, 2, 4, 5, 6, 7, 8, 9, 10, 12, 16, 24, 40, 72, 136, 264}
	lenExtra = [16]uint{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}
)

const (
	minMatch  = 2
	maxMatch  = 518
	endLength = 519 // length value marking the end of the stream
	// length-2 matches only carry two low distance bits
	maxShortDistance = 256
)

var (
	litCode  = newHuffman(litLengths, 256)
	lenCode  = newHuffman(lenLengths, 16)
	distCode = newHuffman(distLengths, 64)
)

// huffman is a canonical code. Codes are assigned in order of length, then
// symbol, and go on the wire most significant bit first with every bit
// inverted.
type huffman struct {
	count  [maxBits + 1]int // number of codes of each length
	symbol []int            // symbols ordered by code

	// encoder side: bit pattern ready for the LSB-first writer
	wire   []uint32
	length []uint
}

func newHuffman(rep []byte, n int) *huffman {
	lengths := make([]uint, 0, n)
	for _, b := range rep {
		repeat := int(b>>4) + 1
		for ; repeat > 0; repeat-- {
			lengths = append(lengths, uint(b&15))
		}
	}
	if len(lengths) != n {
		panic("pkware: code length table does not match symbol count")
	}

	h := &huffman{
		symbol: make([]int, 0, n),
		wire:   make([]uint32, n),
		length: lengths,
	}
	for _, l := range lengths {
		h.count[l]++
	}

	code := uint32(0)
	for l := uint(1); l <= maxBits; l++ {
		for sym, sl := range lengths {
			if sl != l {
				continue
			}
			h.symbol = append(h.symbol, sym)
			h.wire[sym] = invertReverse(code, l)
			code++
		}
		code <<= 1
	}
	return h
}

// invertReverse turns an MSB-first code into the value the LSB-first bit
// writer emits, inverting each bit.
func invertReverse(code uint32, length uint) uint32 {
	var v uint32
	for i := uint(0); i < length; i++ {
		bit := (code>>(length-1-i))&1 ^ 1
		v |= bit << i
	}
	return v
}
