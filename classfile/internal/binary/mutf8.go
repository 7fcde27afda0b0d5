package binary

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DecodeModifiedUTF8 decodes the class file "modified UTF-8" string form.
// NUL is encoded as C0 80, supplementary characters as two 3-byte
// surrogate sequences, and 4-byte sequences never appear. A lone
// surrogate decodes to U+FFFD.
func DecodeModifiedUTF8(data []byte) (string, error) {
	ascii := true
	for _, c := range data {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(data), nil
	}

	var b strings.Builder
	b.Grow(len(data))
	var pending rune = -1

	flush := func() {
		if pending >= 0 {
			b.WriteRune(utf8.RuneError)
			pending = -1
		}
	}

	for i := 0; i < len(data); {
		c := data[i]
		var r rune
		switch {
		case c == 0:
			return "", fmt.Errorf("modified utf8: raw NUL at byte %d", i)
		case c < 0x80:
			r = rune(c)
			i++
		case c&0xe0 == 0xc0:
			if i+1 >= len(data) || data[i+1]&0xc0 != 0x80 {
				return "", fmt.Errorf("modified utf8: bad 2-byte sequence at byte %d", i)
			}
			r = rune(c&0x1f)<<6 | rune(data[i+1]&0x3f)
			i += 2
		case c&0xf0 == 0xe0:
			if i+2 >= len(data) || data[i+1]&0xc0 != 0x80 || data[i+2]&0xc0 != 0x80 {
				return "", fmt.Errorf("modified utf8: bad 3-byte sequence at byte %d", i)
			}
			r = rune(c&0x0f)<<12 | rune(data[i+1]&0x3f)<<6 | rune(data[i+2]&0x3f)
			i += 3
		default:
			return "", fmt.Errorf("modified utf8: invalid lead byte 0x%02x at byte %d", c, i)
		}

		switch {
		case r >= 0xd800 && r < 0xdc00:
			flush()
			pending = r
		case r >= 0xdc00 && r < 0xe000:
			if pending >= 0 {
				b.WriteRune(utf16.DecodeRune(pending, r))
				pending = -1
			} else {
				b.WriteRune(utf8.RuneError)
			}
		default:
			flush()
			b.WriteRune(r)
		}
	}
	flush()
	return b.String(), nil
}
