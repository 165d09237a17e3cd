// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// STUBS
// =============================================================================

type stubExtractor struct {
	pages []string
	err   error
	calls int
}

func (s *stubExtractor) ExtractPages(context.Context, string) ([]string, error) {
	s.calls++
	return s.pages, s.err
}

type stubRasterizer struct {
	pages int
	err   error
	calls int
}

func (s *stubRasterizer) Rasterize(_ context.Context, _ string, dir string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var images []string
	for i := 1; i <= s.pages; i++ {
		images = append(images, filepath.Join(dir, "page-"+string(rune('0'+i))+".png"))
	}
	return images, nil
}

type stubRecognizer struct {
	texts map[string]string
	err   error
	calls map[string]int
}

func (s *stubRecognizer) Recognize(_ context.Context, image string) (string, error) {
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[filepath.Base(image)]++
	if s.err != nil {
		return "", s.err
	}
	return s.texts[filepath.Base(image)], nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func pdfFile(t *testing.T) string {
	return writeFile(t, "scan.pdf", []byte("%PDF-1.7\n"))
}

// =============================================================================
// TEXT
// =============================================================================

func TestLoadText(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("héllo\nworld\n"))
	text, err := LoadText(path)
	require.NoError(t, err)
	assert.Equal(t, "héllo\nworld\n", text)
}

func TestLoadText_StripsBOM(t *testing.T) {
	path := writeFile(t, "bom.txt", append([]byte{0xEF, 0xBB, 0xBF}, "data"...))
	text, err := LoadText(path)
	require.NoError(t, err)
	assert.Equal(t, "data", text)
}

func TestLoadText_InvalidUTF8(t *testing.T) {
	path := writeFile(t, "bad.txt", []byte{'o', 'k', 0xff, 0xfe, 0xfd})
	_, err := LoadText(path)
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestLoadText_Missing(t *testing.T) {
	_, err := LoadText(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, IsIOError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// =============================================================================
// PDF
// =============================================================================

func TestPDFLoader_TextLayerSkipsOCR(t *testing.T) {
	ext := &stubExtractor{pages: []string{"page one\n", "page two\n"}}
	ras := &stubRasterizer{pages: 2}
	rec := &stubRecognizer{}
	l := &PDFLoader{Extractor: ext, Rasterizer: ras, Recognizer: rec}

	res, err := l.Load(context.Background(), pdfFile(t))
	require.NoError(t, err)
	assert.Equal(t, "page one\npage two\n", res.Text)
	assert.Equal(t, 2, res.Pages)
	assert.False(t, res.OCR)
	assert.Zero(t, ras.calls)
	assert.Empty(t, rec.calls)
}

func TestPDFLoader_BlankTextLayerUsesOCROncePerPage(t *testing.T) {
	ext := &stubExtractor{pages: []string{"  \n", "\n", "\t"}}
	ras := &stubRasterizer{pages: 3}
	rec := &stubRecognizer{texts: map[string]string{
		"page-1.png": "first ",
		"page-2.png": "second ",
		"page-3.png": "third",
	}}
	l := &PDFLoader{Extractor: ext, Rasterizer: ras, Recognizer: rec, TempDir: t.TempDir()}

	res, err := l.Load(context.Background(), pdfFile(t))
	require.NoError(t, err)
	assert.Equal(t, "first second third", res.Text)
	assert.True(t, res.OCR)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 1, ras.calls)
	assert.Equal(t, map[string]int{"page-1.png": 1, "page-2.png": 1, "page-3.png": 1}, rec.calls)
}

func TestPDFLoader_ExtractFailureFallsBackToOCR(t *testing.T) {
	ext := &stubExtractor{err: errors.New("pdftotext: not found")}
	rec := &stubRecognizer{texts: map[string]string{"page-1.png": "scanned"}}
	l := &PDFLoader{Extractor: ext, Rasterizer: &stubRasterizer{pages: 1}, Recognizer: rec, TempDir: t.TempDir()}

	res, err := l.Load(context.Background(), pdfFile(t))
	require.NoError(t, err)
	assert.Equal(t, "scanned", res.Text)
	assert.True(t, res.OCR)
}

func TestPDFLoader_BothFail(t *testing.T) {
	extractErr := errors.New("broken xref")
	ocrErr := errors.New("tesseract crashed")
	l := &PDFLoader{
		Extractor:  &stubExtractor{err: extractErr},
		Rasterizer: &stubRasterizer{pages: 1},
		Recognizer: &stubRecognizer{err: ocrErr},
		TempDir:    t.TempDir(),
	}

	_, err := l.Load(context.Background(), pdfFile(t))
	require.Error(t, err)

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.ErrorIs(t, err, extractErr)
	assert.ErrorIs(t, err, ocrErr)
}

func TestPDFLoader_BlankAndNoOCR(t *testing.T) {
	l := &PDFLoader{Extractor: &stubExtractor{pages: []string{""}}}

	_, err := l.Load(context.Background(), pdfFile(t))
	require.Error(t, err)
	assert.True(t, IsExtractionError(err))
}

func TestPDFLoader_MissingFile(t *testing.T) {
	ext := &stubExtractor{}
	l := &PDFLoader{Extractor: ext}

	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.True(t, IsIOError(err))
	assert.Zero(t, ext.calls)
}

func TestPDFLoader_RemovesPageImages(t *testing.T) {
	tmp := t.TempDir()
	l := &PDFLoader{
		Extractor:  &stubExtractor{},
		Rasterizer: &stubRasterizer{pages: 1},
		Recognizer: &stubRecognizer{texts: map[string]string{"page-1.png": "x"}},
		TempDir:    tmp,
	}
	_, err := l.Load(context.Background(), pdfFile(t))
	require.NoError(t, err)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSplitPages(t *testing.T) {
	assert.Nil(t, SplitPages(""))
	assert.Equal(t, []string{"a\n", "b\n"}, SplitPages("a\n\fb\n\f"))
	assert.Equal(t, []string{"only"}, SplitPages("only"))
}

func TestSortByPageNumber(t *testing.T) {
	images := []string{"/d/page-10.png", "/d/page-2.png", "/d/page-1.png"}
	sortByPageNumber(images)
	assert.Equal(t, []string{"/d/page-1.png", "/d/page-2.png", "/d/page-10.png"}, images)
}

// =============================================================================
// LOADER
// =============================================================================

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want Kind
	}{
		{"text", "a.txt", "hello", KindText},
		{"pdf extension", "a.pdf", "not really", KindPDF},
		{"upper extension", "A.PDF", "", KindPDF},
		{"magic without extension", "upload", "%PDF-1.4 ...", KindPDF},
		{"short file", "s", "%P", KindText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := DetectKind(writeFile(t, tt.file, []byte(tt.data)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestDetectKind_Directory(t *testing.T) {
	_, err := DetectKind(t.TempDir())
	assert.True(t, IsIOError(err))
}

func TestLoader_Load(t *testing.T) {
	rec := &stubRecognizer{texts: map[string]string{"page-1.png": "ocr text"}}
	loader := NewLoaderWith(&PDFLoader{
		Extractor:  &stubExtractor{pages: []string{" "}},
		Rasterizer: &stubRasterizer{pages: 1},
		Recognizer: rec,
		TempDir:    t.TempDir(),
	}, nil)

	doc, err := loader.Load(context.Background(), writeFile(t, "notes.md", []byte("# Title")))
	require.NoError(t, err)
	assert.Equal(t, &Document{Name: "notes.md", Path: doc.Path, Kind: KindText, Text: "# Title"}, doc)

	doc, err = loader.Load(context.Background(), pdfFile(t))
	require.NoError(t, err)
	assert.Equal(t, "scan.pdf", doc.Name)
	assert.Equal(t, KindPDF, doc.Kind)
	assert.Equal(t, "ocr text", doc.Text)
	assert.True(t, doc.OCR)
	assert.Equal(t, 1, doc.Pages)

	text, err := loader.LoadPDF(context.Background(), doc.Path)
	require.NoError(t, err)
	assert.Equal(t, "ocr text", text)
}

// =============================================================================
// WATCHER
// =============================================================================

func TestWatcher_ReportsWrites(t *testing.T) {
	path := writeFile(t, "watched.txt", []byte("v1"))
	w, err := NewWatcher(path, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))

	select {
	case got := <-w.Events():
		assert.Equal(t, w.Path(), got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}
}

func TestWatcher_TinyDebounce(t *testing.T) {
	path := writeFile(t, "watched.txt", []byte("v1"))
	w, err := NewWatcher(path, time.Nanosecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))

	select {
	case got := <-w.Events():
		assert.Equal(t, w.Path(), got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	path := writeFile(t, "watched.txt", []byte("v1"))
	w, err := NewWatcher(path, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0644))

	select {
	case got := <-w.Events():
		t.Fatalf("unexpected event for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}
