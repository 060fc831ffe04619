package content

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

type objectStoreFake struct {
	objects map[string][]byte
}

func (f *objectStoreFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = raw
	return nil
}

func (f *objectStoreFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such object: " + key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *objectStoreFake) Stat(_ context.Context, key string) (domain.Document, error) {
	raw, ok := f.objects[key]
	if !ok {
		return domain.Document{}, errors.New("no such object: " + key)
	}
	return domain.Document{StoragePath: key, SizeBytes: int64(len(raw))}, nil
}

func newTestExtractor(objects map[string][]byte, snippetMax int) *Extractor {
	return NewExtractor(&objectStoreFake{objects: objects}, snippetMax, slog.New(slog.DiscardHandler))
}

func docxBytes(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func xlsxBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetCellValue("Sheet1", "A1", "full name"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Sheet1", "B1", "Jane Roe"); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractNonDocumentCategory(t *testing.T) {
	e := newTestExtractor(nil, 0)

	result, err := e.Extract(context.Background(), domain.Document{
		FileName: "selfie.jpg",
		Category: domain.CategoryImage,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Method != domain.MethodNone || result.Failed {
		t.Fatalf("result = %+v, want empty non-failed result", result)
	}
	if result.HasText() {
		t.Fatal("image result should carry no text")
	}
}

func TestExtractPlaintext(t *testing.T) {
	e := newTestExtractor(map[string][]byte{
		"b1_notes.txt": []byte("  customer wants a savings account\nsource of funds: salary  \n"),
	}, 0)

	result, err := e.Extract(context.Background(), domain.Document{
		FileName:    "notes.txt",
		StoragePath: "b1_notes.txt",
		Extension:   ".txt",
		Category:    domain.CategoryDocument,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Method != domain.MethodPrimary {
		t.Fatalf("method = %s, want primary", result.Method)
	}
	if !strings.HasPrefix(result.Text, "customer wants") {
		t.Fatalf("text = %q, want trimmed content", result.Text)
	}
	if result.PageCount != 1 {
		t.Fatalf("pages = %d, want 1", result.PageCount)
	}
	if result.WordCount != 9 {
		t.Fatalf("word count = %d, want 9", result.WordCount)
	}
	if result.CharacterCount != len(result.Text) {
		t.Fatalf("character count = %d, text length %d", result.CharacterCount, len(result.Text))
	}
}

func TestExtractInvalidUTF8Degrades(t *testing.T) {
	e := newTestExtractor(map[string][]byte{
		"b1_garbage.txt": {0xff, 0xfe, 0x00, 0x81},
	}, 0)

	result, err := e.Extract(context.Background(), domain.Document{
		FileName:    "garbage.txt",
		StoragePath: "b1_garbage.txt",
		Extension:   ".txt",
		Category:    domain.CategoryDocument,
	})
	if err != nil {
		t.Fatalf("Extract: %v, want degraded result instead of error", err)
	}
	if !result.Failed || result.Method != domain.MethodNone {
		t.Fatalf("result = %+v, want failed-flagged", result)
	}
	if result.FailureReason == "" {
		t.Fatal("failure reason missing")
	}
}

func TestExtractOpenErrorIsReturned(t *testing.T) {
	e := newTestExtractor(nil, 0)

	_, err := e.Extract(context.Background(), domain.Document{
		FileName:    "missing.txt",
		StoragePath: "b1_missing.txt",
		Extension:   ".txt",
		Category:    domain.CategoryDocument,
	})
	if err == nil {
		t.Fatal("want error for unreadable object")
	}
}

func TestExtractDOCX(t *testing.T) {
	xmlDoc := `<?xml version="1.0"?><w:document xmlns:w="ns"><w:body>` +
		`<w:p><w:r><w:t>Account opening form</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Name: Jane Roe</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	e := newTestExtractor(map[string][]byte{
		"b1_form.docx": docxBytes(t, xmlDoc),
	}, 0)

	result, err := e.Extract(context.Background(), domain.Document{
		FileName:    "form.docx",
		StoragePath: "b1_form.docx",
		Extension:   ".docx",
		Category:    domain.CategoryDocument,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Failed {
		t.Fatalf("extraction failed: %s", result.FailureReason)
	}
	if !strings.Contains(result.Text, "Account opening form") || !strings.Contains(result.Text, "Jane Roe") {
		t.Fatalf("text = %q, want paragraph content", result.Text)
	}
	if !strings.Contains(result.Text, "\n") {
		t.Fatal("paragraph boundary not preserved as newline")
	}
}

func TestExtractDOCXWithoutDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("other.xml"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	e := newTestExtractor(map[string][]byte{"b1_bad.docx": buf.Bytes()}, 0)
	result, err := e.Extract(context.Background(), domain.Document{
		FileName:    "bad.docx",
		StoragePath: "b1_bad.docx",
		Extension:   ".docx",
		Category:    domain.CategoryDocument,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !result.Failed {
		t.Fatal("want failed-flagged result for docx without document.xml")
	}
}

func TestExtractWorkbook(t *testing.T) {
	e := newTestExtractor(map[string][]byte{
		"b1_accounts.xlsx": xlsxBytes(t),
	}, 0)

	result, err := e.Extract(context.Background(), domain.Document{
		FileName:    "accounts.xlsx",
		StoragePath: "b1_accounts.xlsx",
		Extension:   ".xlsx",
		Category:    domain.CategoryDocument,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Failed {
		t.Fatalf("extraction failed: %s", result.FailureReason)
	}
	if !strings.Contains(result.Text, "full name") || !strings.Contains(result.Text, "Jane Roe") {
		t.Fatalf("text = %q, want cell content", result.Text)
	}
	if result.PageCount != 1 || len(result.Pages) != 1 {
		t.Fatalf("pages = %d/%d, want one per sheet", result.PageCount, len(result.Pages))
	}
	if !result.Pages[0].HasText || result.Pages[0].PageNumber != 1 {
		t.Fatalf("page detail = %+v", result.Pages[0])
	}
}

func TestExtractCorruptPDFDegrades(t *testing.T) {
	e := newTestExtractor(map[string][]byte{
		"b1_broken.pdf": []byte("%PDF-1.4 truncated nonsense"),
	}, 0)

	result, err := e.Extract(context.Background(), domain.Document{
		FileName:    "broken.pdf",
		StoragePath: "b1_broken.pdf",
		Extension:   ".pdf",
		Category:    domain.CategoryDocument,
	})
	if err != nil {
		t.Fatalf("Extract: %v, want degraded result instead of error", err)
	}
	if !result.Failed || result.Method != domain.MethodNone {
		t.Fatalf("result = %+v, want both methods exhausted", result)
	}
	if !strings.Contains(result.FailureReason, "primary") || !strings.Contains(result.FailureReason, "fallback") {
		t.Fatalf("failure reason = %q, want both methods mentioned", result.FailureReason)
	}
}

func TestSnippetTruncation(t *testing.T) {
	long := strings.Repeat("abcde ", 100) // 600 chars
	e := newTestExtractor(map[string][]byte{
		"b1_long.txt": []byte(long),
	}, 100)

	result, err := e.Extract(context.Background(), domain.Document{
		FileName:    "long.txt",
		StoragePath: "b1_long.txt",
		Extension:   ".txt",
		Category:    domain.CategoryDocument,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Text) != 103 || !strings.HasSuffix(result.Text, "...") {
		t.Fatalf("text length = %d, want 100 chars plus ellipsis", len(result.Text))
	}
	if result.CharacterCount != 599 {
		t.Fatalf("character count = %d, want untruncated length 599", result.CharacterCount)
	}
	if result.WordCount != 100 {
		t.Fatalf("word count = %d, want 100", result.WordCount)
	}
}

func TestSnippetTruncationKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("я", 60) // 120 bytes, 2 bytes per rune
	e := newTestExtractor(map[string][]byte{
		"b1_cyrillic.txt": []byte(long),
	}, 101) // falls in the middle of a rune

	result, err := e.Extract(context.Background(), domain.Document{
		FileName:    "cyrillic.txt",
		StoragePath: "b1_cyrillic.txt",
		Extension:   ".txt",
		Category:    domain.CategoryDocument,
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !utf8.ValidString(result.Text) {
		t.Fatalf("snippet contains invalid UTF-8: %q", result.Text)
	}
	if want := strings.Repeat("я", 50) + "..."; result.Text != want {
		t.Fatalf("text = %q, want cut backed up to the rune boundary", result.Text)
	}
}
