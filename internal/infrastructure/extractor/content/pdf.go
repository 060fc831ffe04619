package content

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

// extractPDFPerPage is the primary method: page-by-page text plus image
// detection through each page's XObject resources.
func extractPDFPerPage(data []byte) (result rawResult, err error) {
	// The pdf package panics on some malformed files; degrade to the
	// fallback method instead of crashing the worker.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf primary extraction panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return rawResult{}, fmt.Errorf("open pdf: %w", err)
	}

	pageCount := reader.NumPage()
	var text strings.Builder
	pages := make([]domain.PageDetail, 0, pageCount)
	totalImages := 0

	for num := 1; num <= pageCount; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			pages = append(pages, domain.PageDetail{PageNumber: num})
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return rawResult{}, fmt.Errorf("extract page %d: %w", num, err)
		}
		text.WriteString(pageText)
		text.WriteString("\n")

		images := countPageImages(page)
		totalImages += images
		pages = append(pages, domain.PageDetail{
			PageNumber: num,
			TextLength: len(pageText),
			HasText:    strings.TrimSpace(pageText) != "",
			ImageCount: images,
		})
	}

	return rawResult{
		text:       text.String(),
		pageCount:  pageCount,
		pages:      pages,
		imageCount: totalImages,
	}, nil
}

// extractPDFWholeText is the fallback method: best-effort text recovery over
// the whole document, with page count but no per-page detail.
func extractPDFWholeText(data []byte) (result rawResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf fallback extraction panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return rawResult{}, fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return rawResult{}, fmt.Errorf("recover pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return rawResult{}, fmt.Errorf("read pdf text: %w", err)
	}

	return rawResult{
		text:      buf.String(),
		pageCount: reader.NumPage(),
	}, nil
}

func countPageImages(page pdf.Page) int {
	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return 0
	}
	xobjects := resources.Key("XObject")
	if xobjects.IsNull() {
		return 0
	}

	count := 0
	for _, name := range xobjects.Keys() {
		if xobjects.Key(name).Key("Subtype").Name() == "Image" {
			count++
		}
	}
	return count
}
