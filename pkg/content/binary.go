package content

import (
	"bytes"
	"unicode/utf8"
)

// SniffLen is how much of a file is inspected to classify it.
const SniffLen = 8 * 1024

// binaryRatio is the share of non-printable bytes above which a prefix is binary.
const binaryRatio = 0.3

// IsBinary reports whether prefix looks like binary data: it holds a NUL byte
// or more than 30% non-printable bytes. Multi-byte UTF-8 sequences count as
// printable, including one cut off at the end of the prefix.
func IsBinary(prefix []byte) bool {
	if len(prefix) == 0 {
		return false
	}
	if bytes.IndexByte(prefix, 0) >= 0 {
		return true
	}

	nonPrintable := 0
	for i := 0; i < len(prefix); {
		b := prefix[i]
		if b < utf8.RuneSelf {
			if !isPrintable(b) {
				nonPrintable++
			}
			i++
			continue
		}
		r, size := utf8.DecodeRune(prefix[i:])
		if r == utf8.RuneError && size <= 1 {
			if !utf8.FullRune(prefix[i:]) {
				break
			}
			nonPrintable++
			i++
			continue
		}
		i += size
	}

	return float64(nonPrintable)/float64(len(prefix)) > binaryRatio
}

// isPrintable checks if an ASCII byte is printable text.
func isPrintable(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b == '\f'
}
