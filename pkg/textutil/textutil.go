// Package textutil inspects raw submission bytes before they are parsed.
package textutil

import (
	"bytes"
)

// BinarySniffLength is the number of leading bytes scanned for a NUL byte.
const BinarySniffLength = 8000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsBinary reports whether data has a NUL byte within its first
// BinarySniffLength bytes. Source text never does. Empty data is not binary.
func IsBinary(data []byte) bool {
	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// StripBOM returns data without a leading UTF-8 byte order mark. Editors on
// Windows add one and Python ignores it, but tree-sitter does not.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// CountLines returns the number of lines in data. A final line without a
// trailing newline still counts; empty data has zero lines.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})

	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}
