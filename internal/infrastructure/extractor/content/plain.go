package content

import (
	"errors"
	"strings"
	"unicode/utf8"
)

func extractPlaintext(data []byte) (rawResult, error) {
	if !utf8.Valid(data) {
		return rawResult{}, errors.New("not valid utf-8 text")
	}
	text := strings.TrimSpace(string(data))
	return rawResult{text: text, pageCount: 1}, nil
}
