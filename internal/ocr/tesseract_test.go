package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTesseractRecognizeArgs(t *testing.T) {
	runner := &fakeRunner{run: func(name string, args []string) ([]byte, []byte, error) {
		return []byte("Invoice Number: 42\n"), nil, nil
	}}
	eng := NewTesseract("tesseract", "eng")
	eng.runner = runner

	text, err := eng.Recognize(context.Background(), "/tmp/page-1.png", 6)
	require.NoError(t, err)
	assert.Equal(t, "Invoice Number: 42\n", text)

	require.Len(t, runner.calls, 1)
	assert.Equal(t,
		[]string{"tesseract", "/tmp/page-1.png", "stdout", "-l", "eng", "--oem", "3", "--psm", "6"},
		runner.calls[0])
}

func TestTesseractRecognizeError(t *testing.T) {
	runner := &fakeRunner{run: func(name string, args []string) ([]byte, []byte, error) {
		return nil, []byte("Error in pixReadStream: Unknown format\nmore noise"), errors.New("exit status 1")
	}}
	eng := NewTesseract("", "")
	eng.runner = runner

	_, err := eng.Recognize(context.Background(), "bad.png", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error in pixReadStream")
	assert.NotContains(t, err.Error(), "more noise")
}

func TestTesseractDefaults(t *testing.T) {
	eng := NewTesseract("", "")
	assert.Equal(t, "tesseract", eng.bin)
	assert.Equal(t, "eng", eng.languages)
}

func TestTesseractAvailable(t *testing.T) {
	eng := NewTesseract("tesseract", "eng")

	eng.runner = &fakeRunner{}
	assert.True(t, eng.Available(context.Background()))

	eng.runner = &fakeRunner{run: func(name string, args []string) ([]byte, []byte, error) {
		return nil, nil, errors.New("executable file not found")
	}}
	assert.False(t, eng.Available(context.Background()))
}
