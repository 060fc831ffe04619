package content

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

func extractDOCX(data []byte) (rawResult, error) {
	if len(data) == 0 {
		return rawResult{}, errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return rawResult{}, fmt.Errorf("open docx archive: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return rawResult{}, errors.New("word/document.xml not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return rawResult{}, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return rawResult{}, fmt.Errorf("read document.xml: %w", err)
	}

	text := stripDocxXML(string(raw))
	return rawResult{text: text, pageCount: 1}, nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// extractWorkbook reads every sheet of a spreadsheet; each sheet becomes one
// page of the result.
func extractWorkbook(data []byte) (rawResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return rawResult{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var text strings.Builder
	pages := make([]domain.PageDetail, 0, len(sheets))

	for idx, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return rawResult{}, fmt.Errorf("read sheet %s: %w", sheet, err)
		}

		sheetStart := text.Len()
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			text.WriteString(line)
			text.WriteString("\n")
		}

		sheetLen := text.Len() - sheetStart
		pages = append(pages, domain.PageDetail{
			PageNumber: idx + 1,
			TextLength: sheetLen,
			HasText:    sheetLen > 0,
		})
	}

	return rawResult{
		text:      text.String(),
		pageCount: len(sheets),
		pages:     pages,
	}, nil
}
