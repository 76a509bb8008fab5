// Package encoding provides text encoding utilities for the engine's fixed-size string fields.
package encoding

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Windows1252ToUTF8 converts Windows-1252 encoded bytes to a UTF-8 string.
// Returns the original bytes as a string if conversion fails.
func Windows1252ToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToWindows1252 converts a UTF-8 string to Windows-1252 encoded bytes.
// Characters outside the code page are replaced by the encoder.
func UTF8ToWindows1252(s string) []byte {
	encoder := charmap.Windows1252.NewEncoder()
	result, _, err := transform.Bytes(encoder, []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// FixedString converts a null-padded fixed-size field to a UTF-8 string.
func FixedString(data []byte) string {
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		data = data[:idx]
	}
	return Windows1252ToUTF8(data)
}

// ToFixedString encodes s into a null-padded field of the given size.
// The last byte is always left as a terminator.
func ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	encoded := UTF8ToWindows1252(s)
	if len(encoded) > size-1 {
		encoded = encoded[:size-1]
	}
	copy(result, encoded)
	return result
}

// NormalizePath converts a path to the engine's convention: backslash
// separators, lower case.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "/", "\\")
	return strings.ToLower(path)
}
