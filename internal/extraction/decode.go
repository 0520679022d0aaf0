package extraction

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding is one entry in the text decoder's fallback chain.
type Encoding struct {
	Name   string
	Decode func(b []byte) (string, error)
}

// windows-1252 leaves these bytes undefined.
var cp1252Undefined = map[byte]bool{0x81: true, 0x8d: true, 0x8f: true, 0x90: true, 0x9d: true}

// DefaultEncodings returns the standard fallback chain: UTF-8, Latin-1,
// Windows-1252, ASCII. Latin-1 accepts every byte, so later entries only
// matter for custom chains.
func DefaultEncodings() []Encoding {
	return []Encoding{
		{Name: "utf-8", Decode: decodeUTF8},
		{Name: "latin-1", Decode: decodeLatin1},
		{Name: "windows-1252", Decode: decodeWindows1252},
		{Name: "ascii", Decode: decodeASCII},
	}
}

func decodeUTF8(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("invalid utf-8 sequence")
	}
	return string(b), nil
}

func decodeLatin1(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeWindows1252(b []byte) (string, error) {
	for _, c := range b {
		if cp1252Undefined[c] {
			return "", fmt.Errorf("byte 0x%02x undefined in windows-1252", c)
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeASCII(b []byte) (string, error) {
	for _, c := range b {
		if c > 0x7f {
			return "", fmt.Errorf("byte 0x%02x outside ascii range", c)
		}
	}
	return string(b), nil
}

// Decoder turns raw plain-text bytes into a string. It tries each encoding
// in order and takes the first successful decode; when every entry fails it
// decodes as UTF-8 with replacement characters. Decoding never errors.
type Decoder struct {
	chain []Encoding
}

func NewDecoder(chain ...Encoding) *Decoder {
	if len(chain) == 0 {
		chain = DefaultEncodings()
	}
	return &Decoder{chain: chain}
}

func (d *Decoder) Decode(b []byte) string {
	for _, enc := range d.chain {
		if s, err := enc.Decode(b); err == nil {
			return s
		}
	}
	return replaceInvalidUTF8(b)
}

// replaceInvalidUTF8 substitutes one replacement character per invalid
// byte, keeping valid sequences intact.
func replaceInvalidUTF8(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.Write(b[:size])
		}
		b = b[size:]
	}
	return sb.String()
}
