package extraction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeValidUTF8(t *testing.T) {
	d := NewDecoder()
	assert.Equal(t, "héllo wörld", d.Decode([]byte("héllo wörld")))
	assert.Equal(t, "", d.Decode(nil))
}

func TestDecodeFallsBackToLatin1(t *testing.T) {
	d := NewDecoder()

	// 0xE9 is not valid UTF-8 on its own; Latin-1 maps it to é.
	got := d.Decode([]byte{'c', 'a', 'f', 0xE9})
	assert.Equal(t, "café", got)
}

func TestDecodeLatin1BeatsWindows1252(t *testing.T) {
	d := NewDecoder()

	// 0x92 is a smart quote in Windows-1252 but Latin-1 comes first in
	// the chain and accepts every byte, so it decodes as the C1 control
	// character.
	got := d.Decode([]byte{'i', 't', 0x92, 's'})
	assert.Equal(t, "it\u0092s", got)
}

func TestDecodeWindows1252WhenChainSkipsLatin1(t *testing.T) {
	chain := DefaultEncodings()
	d := NewDecoder(chain[0], chain[2]) // utf-8, windows-1252

	got := d.Decode([]byte{'i', 't', 0x92, 's'})
	assert.Equal(t, "it’s", got)
}

func TestDecodeWindows1252RejectsUndefinedBytes(t *testing.T) {
	chain := DefaultEncodings()
	d := NewDecoder(chain[0], chain[2])

	// 0x81 has no Windows-1252 mapping, so both entries fail and the
	// decoder falls through to UTF-8 with replacement.
	got := d.Decode([]byte{'a', 0x81, 'b'})
	assert.Equal(t, "a�b", got)
}

func TestDecodeASCIIEntry(t *testing.T) {
	chain := DefaultEncodings()
	d := NewDecoder(chain[3]) // ascii only

	assert.Equal(t, "plain", d.Decode([]byte("plain")))
	assert.Equal(t, "caf�", d.Decode([]byte{'c', 'a', 'f', 0xE9}))
}

func TestDecodeReplacementLastResort(t *testing.T) {
	failing := Encoding{Name: "never", Decode: func(b []byte) (string, error) {
		return "", errors.New("nope")
	}}
	d := NewDecoder(failing)

	got := d.Decode([]byte{0xFF, 0xFE, 'o', 'k'})
	assert.Equal(t, "��ok", got)
}

func TestDefaultEncodingsOrder(t *testing.T) {
	var names []string
	for _, e := range DefaultEncodings() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"utf-8", "latin-1", "windows-1252", "ascii"}, names)
}
