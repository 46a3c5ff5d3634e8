// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

type PDFExtractor struct{}

func (e *PDFExtractor) GetMetadata(filename string, fileSize int64) (DocMetadata, error) {
	file, reader, err := pdf.Open(filename)
	if err != nil {
		return DocMetadata{}, fmt.Errorf("invalid PDF file: %v", err)
	}
	defer file.Close()

	return DocMetadata{
		Format:       "pdf",
		Title:        guessTitle(reader),
		PageCount:    reader.NumPage(),
		OriginalSize: fileSize,
	}, nil
}

func (e *PDFExtractor) ExtractText(filename string) (string, error) {
	file, reader, err := pdf.Open(filename)
	if err != nil {
		return "", fmt.Errorf("invalid PDF file: %v", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single damaged page should not sink the whole document.
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n\n")
	}

	return strings.TrimSpace(buf.String()), nil
}

// guessTitle reads the document info dictionary's Title entry, falling
// back to empty when the PDF does not carry one.
func guessTitle(reader *pdf.Reader) string {
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}

	title := info.Key("Title")
	if title.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(title.Text())
}
