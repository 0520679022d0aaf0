package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const viableText = "this document has plenty of readable words inside it"

type mockExtractor struct {
	name  string
	text  string
	err   error
	calls int
}

func (m *mockExtractor) Name() string { return m.name }

func (m *mockExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	m.calls++
	return m.text, m.err
}

type mockOCR struct {
	text  string
	pages int
	err   error
	calls int
}

func (m *mockOCR) Extract(ctx context.Context, data []byte) (string, int, error) {
	m.calls++
	return m.text, m.pages, m.err
}

type mapCache struct {
	entries map[string]string
	gets    int
	sets    int
}

func (c *mapCache) Get(ctx context.Context, key string) (string, bool) {
	c.gets++
	text, ok := c.entries[key]
	return text, ok
}

func (c *mapCache) Set(ctx context.Context, key, text string) {
	c.sets++
	if c.entries == nil {
		c.entries = map[string]string{}
	}
	c.entries[key] = text
}

func pdfDoc(name string, content []byte) Document {
	return Document{Name: name, Type: TypePDF, Content: base64.StdEncoding.EncodeToString(content)}
}

func textDoc(name, content string) Document {
	return Document{Name: name, Type: TypeText, Content: base64.StdEncoding.EncodeToString([]byte(content))}
}

var allCaps = Capabilities{NativeA: true, NativeB: true, OCR: true}

func TestProcessDocumentDecodesText(t *testing.T) {
	s := New(Config{}, Deps{})

	res, err := s.ProcessDocument(context.Background(), textDoc("note.txt", "héllo wörld"))
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld", res.Text)
	assert.Equal(t, MethodDecode, res.Method)
}

func TestProcessDocumentUnsupportedType(t *testing.T) {
	s := New(Config{}, Deps{})

	_, err := s.ProcessDocument(context.Background(), Document{Name: "x", Type: "docx", Content: "aGk="})
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, CodeUnsupportedType, inputErr.Code)
}

func TestProcessDocumentTypeCaseInsensitive(t *testing.T) {
	s := New(Config{}, Deps{})

	res, err := s.ProcessDocument(context.Background(), Document{
		Name: "x", Type: "TEXT", Content: base64.StdEncoding.EncodeToString([]byte("ok")),
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
}

func TestProcessDocumentBadBase64(t *testing.T) {
	s := New(Config{}, Deps{})

	_, err := s.ProcessDocument(context.Background(), Document{Name: "x", Type: TypeText, Content: "!!!not base64!!!"})
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, CodeInvalidEncoding, inputErr.Code)
}

func TestProcessDocumentBase64WithWhitespace(t *testing.T) {
	s := New(Config{}, Deps{})

	enc := base64.StdEncoding.EncodeToString([]byte("hello there"))
	wrapped := enc[:4] + "\n" + enc[4:8] + " \t" + enc[8:]

	res, err := s.ProcessDocument(context.Background(), Document{Name: "x", Type: TypeText, Content: wrapped})
	require.NoError(t, err)
	assert.Equal(t, "hello there", res.Text)
}

func TestProcessDocumentTooLarge(t *testing.T) {
	s := New(Config{}, Deps{})

	big := bytes.Repeat([]byte{'a'}, MaxDocumentSize+1)
	_, err := s.ProcessDocument(context.Background(), textDoc("big", string(big)))
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, CodeTooLarge, inputErr.Code)
}

func TestPDFFirstMethodWins(t *testing.T) {
	a := &mockExtractor{name: "a", text: viableText}
	b := &mockExtractor{name: "b", text: viableText}
	o := &mockOCR{text: "ocr"}
	s := New(Config{}, Deps{NativeA: a, NativeB: b, OCR: o, Caps: allCaps})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("doc.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, MethodNativeA, res.Method)
	assert.Equal(t, viableText, res.Text)
	assert.Equal(t, 1, a.calls)
	assert.Zero(t, b.calls)
	assert.Zero(t, o.calls)
}

func TestPDFFallsBackOnInsufficientText(t *testing.T) {
	a := &mockExtractor{name: "a", text: "too short"}
	b := &mockExtractor{name: "b", text: viableText}
	s := New(Config{}, Deps{NativeA: a, NativeB: b, Caps: allCaps})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("doc.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, MethodNativeB, res.Method)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestPDFFallsBackOnError(t *testing.T) {
	a := &mockExtractor{name: "a", err: errors.New("parse failed")}
	b := &mockExtractor{name: "b", text: viableText}
	s := New(Config{}, Deps{NativeA: a, NativeB: b, Caps: allCaps})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("doc.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, MethodNativeB, res.Method)
}

func TestPDFFallsBackToOCR(t *testing.T) {
	a := &mockExtractor{name: "a", text: "bad"}
	b := &mockExtractor{name: "b", err: errors.New("broken")}
	o := &mockOCR{text: "scanned words from pixels", pages: 3}
	s := New(Config{}, Deps{NativeA: a, NativeB: b, OCR: o, Caps: allCaps})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("scan.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, MethodOCR, res.Method)
	assert.Equal(t, "scanned words from pixels", res.Text)
	assert.Equal(t, 3, res.Pages)
	assert.False(t, res.LowConfidence)
}

func TestOCRAcceptedWithoutQualityGate(t *testing.T) {
	// Two characters would never pass the gate, but OCR output is final
	// by default.
	o := &mockOCR{text: "ok", pages: 1}
	s := New(Config{}, Deps{OCR: o, Caps: Capabilities{OCR: true}})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("scan.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, MethodOCR, res.Method)
	assert.Equal(t, "ok", res.Text)
	assert.False(t, res.LowConfidence)
}

func TestOCRQualityCheckFlagsLowConfidence(t *testing.T) {
	o := &mockOCR{text: "ok", pages: 1}
	s := New(Config{OCRQualityCheck: true}, Deps{OCR: o, Caps: Capabilities{OCR: true}})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("scan.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.True(t, res.LowConfidence)

	o2 := &mockOCR{text: viableText, pages: 1}
	s2 := New(Config{OCRQualityCheck: true}, Deps{OCR: o2, Caps: Capabilities{OCR: true}})

	res2, err := s2.ProcessDocument(context.Background(), pdfDoc("scan.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.False(t, res2.LowConfidence)
}

func TestPDFTotalFailureReturnsEmpty(t *testing.T) {
	a := &mockExtractor{name: "a", err: errors.New("no")}
	b := &mockExtractor{name: "b", text: ""}
	o := &mockOCR{text: "  \n "}
	s := New(Config{}, Deps{NativeA: a, NativeB: b, OCR: o, Caps: allCaps})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("doc.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestCacheHitSkipsExtraction(t *testing.T) {
	raw := []byte("%PDF cached content")
	cache := &mapCache{entries: map[string]string{CacheKey(raw): "cached extraction text"}}
	a := &mockExtractor{name: "a", text: viableText}
	s := New(Config{UseCache: true}, Deps{NativeA: a, Cache: cache, Caps: allCaps})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("doc.pdf", raw))
	require.NoError(t, err)
	assert.Equal(t, MethodCache, res.Method)
	assert.Equal(t, "cached extraction text", res.Text)
	assert.Zero(t, a.calls)
}

func TestSecondRunServedFromCache(t *testing.T) {
	raw := []byte("%PDF same bytes")
	cache := &mapCache{}
	a := &mockExtractor{name: "a", text: viableText}
	s := New(Config{UseCache: true}, Deps{NativeA: a, Cache: cache, Caps: allCaps})
	ctx := context.Background()

	first, err := s.ProcessDocument(ctx, pdfDoc("doc.pdf", raw))
	require.NoError(t, err)
	assert.Equal(t, MethodNativeA, first.Method)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, cache.sets)

	second, err := s.ProcessDocument(ctx, pdfDoc("doc.pdf", raw))
	require.NoError(t, err)
	assert.Equal(t, MethodCache, second.Method)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, a.calls)
}

func TestCacheKeyIgnoresDocumentName(t *testing.T) {
	raw := []byte("%PDF shared content")
	cache := &mapCache{}
	a := &mockExtractor{name: "a", text: viableText}
	s := New(Config{UseCache: true}, Deps{NativeA: a, Cache: cache, Caps: allCaps})
	ctx := context.Background()

	_, err := s.ProcessDocument(ctx, pdfDoc("first-name.pdf", raw))
	require.NoError(t, err)

	res, err := s.ProcessDocument(ctx, pdfDoc("completely-different.pdf", raw))
	require.NoError(t, err)
	assert.Equal(t, MethodCache, res.Method)
	assert.Equal(t, 1, a.calls)
}

func TestCacheKeyKnownDigest(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", CacheKey([]byte("hello")))
}

func TestCacheDisabled(t *testing.T) {
	cache := &mapCache{}
	a := &mockExtractor{name: "a", text: viableText}
	s := New(Config{UseCache: false}, Deps{NativeA: a, Cache: cache, Caps: allCaps})

	_, err := s.ProcessDocument(context.Background(), pdfDoc("doc.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Zero(t, cache.gets)
	assert.Zero(t, cache.sets)
}

func TestEmptyCachedTextIsMiss(t *testing.T) {
	raw := []byte("%PDF empty entry")
	cache := &mapCache{entries: map[string]string{CacheKey(raw): ""}}
	a := &mockExtractor{name: "a", text: viableText}
	s := New(Config{UseCache: true}, Deps{NativeA: a, Cache: cache, Caps: allCaps})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("doc.pdf", raw))
	require.NoError(t, err)
	assert.Equal(t, MethodNativeA, res.Method)
	assert.Equal(t, 1, a.calls)
}

func TestFailedExtractionNotCached(t *testing.T) {
	cache := &mapCache{}
	a := &mockExtractor{name: "a", err: errors.New("no")}
	s := New(Config{UseCache: true}, Deps{NativeA: a, Cache: cache, Caps: allCaps})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("doc.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Zero(t, cache.sets)
}

func TestCapabilityGateSkipsMethods(t *testing.T) {
	a := &mockExtractor{name: "a", text: viableText}
	b := &mockExtractor{name: "b", text: viableText}
	s := New(Config{}, Deps{NativeA: a, NativeB: b, Caps: Capabilities{NativeA: false, NativeB: true}})

	res, err := s.ProcessDocument(context.Background(), pdfDoc("doc.pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, MethodNativeB, res.Method)
	assert.Zero(t, a.calls)
}

func TestProcessDocumentsEmptyBatch(t *testing.T) {
	s := New(Config{}, Deps{})

	assert.Equal(t, "", s.ProcessDocuments(context.Background(), nil))
	assert.Equal(t, "", s.ProcessDocuments(context.Background(), []Document{}))
}

func TestProcessDocumentsJoinsSections(t *testing.T) {
	a := &mockExtractor{name: "a", text: viableText}
	s := New(Config{Concurrency: 1}, Deps{NativeA: a, Caps: allCaps})

	out := s.ProcessDocuments(context.Background(), []Document{
		textDoc("notes.txt", "typed up meeting notes"),
		pdfDoc("report.pdf", []byte("%PDF")),
	})

	want := "--- Document: notes.txt ---\ntyped up meeting notes" +
		"\n\n" +
		"--- Document: report.pdf ---\n" + viableText
	assert.Equal(t, want, out)
}

func TestProcessDocumentsSkipsFailures(t *testing.T) {
	a := &mockExtractor{name: "a", text: viableText}
	s := New(Config{Concurrency: 1}, Deps{NativeA: a, Caps: allCaps})

	out := s.ProcessDocuments(context.Background(), []Document{
		textDoc("first.txt", "leading content"),
		{Name: "broken.pdf", Type: TypePDF, Content: "!!! not base64 !!!"},
		pdfDoc("fine.pdf", []byte("%PDF")),
	})

	want := "--- Document: first.txt ---\nleading content" +
		"\n\n" +
		"--- Document: fine.pdf ---\n" + viableText
	assert.Equal(t, want, out)
}

func TestProcessDocumentsKeepsInputOrder(t *testing.T) {
	a := &mockExtractor{name: "a", text: viableText}
	s := New(Config{Concurrency: 4}, Deps{NativeA: a, Caps: allCaps})

	docs := make([]Document, 4)
	for i := range docs {
		docs[i] = textDoc(fmt.Sprintf("doc-%d.txt", i), fmt.Sprintf("content number %d", i))
	}

	out := s.ProcessDocuments(context.Background(), docs)
	want := ""
	for i := range docs {
		if i > 0 {
			want += "\n\n"
		}
		want += fmt.Sprintf("--- Document: doc-%d.txt ---\ncontent number %d", i, i)
	}
	assert.Equal(t, want, out)
}

func TestProcessDocumentsUnnamed(t *testing.T) {
	s := New(Config{}, Deps{})

	out := s.ProcessDocuments(context.Background(), []Document{textDoc("", "anonymous content")})
	assert.Equal(t, "--- Document: Unknown ---\nanonymous content", out)
}

func TestProcessDocumentsAllFailed(t *testing.T) {
	s := New(Config{}, Deps{})

	out := s.ProcessDocuments(context.Background(), []Document{
		{Name: "a.pdf", Type: TypePDF, Content: "%%%"},
		{Name: "b.xls", Type: "xls", Content: "aGk="},
	})
	assert.Equal(t, "", out)
}
