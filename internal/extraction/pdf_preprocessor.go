package extraction

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	maxTextBytes     = 100 * 1024 // 100KB cap for extracted text
	scannedThreshold = 50         // chars per page below which a PDF is considered scanned
)

// PDFAnalysis holds the text layer of a PDF receipt.
type PDFAnalysis struct {
	PageCount     int
	ExtractedText string
	TextLines     []string
	IsScanned     bool
	Error         error
}

// AnalyzePDF extracts the text layer of a PDF. It never panics: on any
// failure the document is reported as scanned so the caller falls back
// to OCR.
func AnalyzePDF(data []byte) (result *PDFAnalysis) {
	result = &PDFAnalysis{
		PageCount: 1,
		IsScanned: true,
	}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("panic during PDF analysis: %v", r)
			result.IsScanned = true
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		result.Error = fmt.Errorf("open PDF reader: %w", err)
		return result
	}

	result.PageCount = reader.NumPage()
	if result.PageCount < 1 {
		result.PageCount = 1
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		result.Error = fmt.Errorf("extract plain text: %w", err)
		return result
	}

	textBytes, err := io.ReadAll(io.LimitReader(plainText, int64(maxTextBytes)))
	if err != nil {
		result.Error = fmt.Errorf("read plain text: %w", err)
		return result
	}

	result.ExtractedText = string(textBytes)
	result.IsScanned = isLikelyScanned(result.ExtractedText, result.PageCount)
	result.TextLines = nonEmptyLines(result.ExtractedText)
	return result
}

// isLikelyScanned returns true if the PDF appears to be a scanned image
// (very little extractable text per page).
func isLikelyScanned(text string, pages int) bool {
	if pages <= 0 {
		pages = 1
	}
	return len(strings.TrimSpace(text))/pages < scannedThreshold
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); len(trimmed) > 1 {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
