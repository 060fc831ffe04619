package usecase

import (
	"path/filepath"
	"strings"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

var documentExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".txt": {},
	".xlsx": {}, ".xls": {}, ".pptx": {},
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".tiff": {},
}

// ClassifyFile maps a file path to its category. Total: every extension maps
// somewhere, unknown ones to CategoryOther.
func ClassifyFile(path string) domain.FileCategory {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := documentExtensions[ext]; ok {
		return domain.CategoryDocument
	}
	if _, ok := imageExtensions[ext]; ok {
		return domain.CategoryImage
	}
	return domain.CategoryOther
}

// CountCategories tallies classified documents for the package summary.
func CountCategories(docs []domain.Document) domain.FileCategoryCounts {
	var counts domain.FileCategoryCounts
	for _, doc := range docs {
		switch doc.Category {
		case domain.CategoryDocument:
			counts.Documents++
		case domain.CategoryImage:
			counts.Images++
		default:
			counts.Other++
		}
	}
	return counts
}
