// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package document extracts searchable text from uploaded papers.
package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// DocMetadata contains information about an uploaded document.
type DocMetadata struct {
	Format       string `json:"format"`
	Title        string `json:"title,omitempty"`
	PageCount    int    `json:"page_count"`
	OriginalSize int64  `json:"original_size_bytes"`
}

// Extractor defines the interface for document format handlers.
type Extractor interface {
	GetMetadata(filename string, fileSize int64) (DocMetadata, error)
	ExtractText(filename string) (string, error)
}

// pdfMagic is the header every well-formed PDF starts with.
var pdfMagic = []byte("%PDF-")

// DetectFormat sniffs the file's leading bytes and returns an Extractor
// for the detected format. Extension is ignored; only content counts.
func DetectFormat(filename string) (Extractor, string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(file, header); err != nil {
		// Shorter than the magic itself cannot be a supported document.
		return nil, "", fmt.Errorf("failed to read file header: %v", err)
	}

	if bytes.Equal(header, pdfMagic) {
		return &PDFExtractor{}, "pdf", nil
	}

	return nil, "", fmt.Errorf("unsupported document format")
}
