package extraction

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// MaxReceiptBytes caps an upload.
	MaxReceiptBytes = 10 << 20

	methodText    = "text"
	methodPDFText = "pdf-text"
	methodOCR     = "ml-ocr"
)

// OCR turns a receipt image into fields. *MLClient implements it.
type OCR interface {
	ScanReceipt(ctx context.Context, data []byte, filename string) (*MLReceiptResponse, error)
}

// ScanResult is a parsed receipt and, when archived, where the upload went.
type ScanResult struct {
	Receipt    *Receipt `json:"receipt"`
	ArchiveURI string   `json:"archive_uri,omitempty"`
}

// ReceiptScanner parses plain text and PDFs with a text layer locally and
// sends images and scanned PDFs to the OCR service.
type ReceiptScanner struct {
	ocr     OCR
	archive Archive
	retry   RetryConfig
	now     func() time.Time
	log     zerolog.Logger
}

type ScannerOption func(*ReceiptScanner)

// WithArchive stores every upload before it is parsed.
func WithArchive(a Archive) ScannerOption {
	return func(s *ReceiptScanner) { s.archive = a }
}

func WithRetryConfig(cfg RetryConfig) ScannerOption {
	return func(s *ReceiptScanner) { s.retry = cfg }
}

func WithScannerClock(now func() time.Time) ScannerOption {
	return func(s *ReceiptScanner) { s.now = now }
}

func WithScannerLogger(log zerolog.Logger) ScannerOption {
	return func(s *ReceiptScanner) { s.log = log }
}

// NewReceiptScanner builds a scanner. ocr may be nil; images then fail
// with ErrMLNotConfigured.
func NewReceiptScanner(ocr OCR, opts ...ScannerOption) *ReceiptScanner {
	s := &ReceiptScanner{
		ocr:   ocr,
		retry: DefaultMLRetryConfig,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan archives the upload (best effort) and extracts the receipt.
func (s *ReceiptScanner) Scan(ctx context.Context, userID, filename string, data []byte) (*ScanResult, error) {
	if len(data) == 0 {
		return nil, &ExtractionError{Code: ErrInvalidDocument, Message: "empty upload"}
	}
	if len(data) > MaxReceiptBytes {
		return nil, &ExtractionError{Code: ErrInvalidDocument, Message: "upload exceeds 10MB"}
	}
	contentType := http.DetectContentType(data)
	log := s.log.With().Str("user_id", userID).Str("filename", filename).Str("content_type", contentType).Logger()

	result := &ScanResult{}
	if s.archive != nil {
		uri, err := s.archive.Put(ctx, userID, filename, contentType, data)
		if err != nil {
			log.Warn().Err(err).Msg("receipt archive failed")
		} else {
			result.ArchiveURI = uri
		}
	}

	receipt, err := s.extract(ctx, filename, contentType, data, log)
	if err != nil {
		return nil, err
	}
	receipt.Amount = decimal.NewFromFloat(receipt.Amount).Round(2).InexactFloat64()
	if receipt.Amount <= 0 {
		return nil, &ExtractionError{Code: ErrNoReceiptData, Message: "no total found on receipt", Method: receipt.Method}
	}
	result.Receipt = receipt
	log.Info().Str("method", receipt.Method).Float64("amount", receipt.Amount).Msg("receipt scanned")
	return result, nil
}

func (s *ReceiptScanner) extract(ctx context.Context, filename, contentType string, data []byte, log zerolog.Logger) (*Receipt, error) {
	if strings.HasPrefix(contentType, "text/plain") {
		r := ParseReceiptText(string(data), s.now())
		r.Method = methodText
		return r, nil
	}

	switch contentType {
	case "application/pdf":
		analysis := AnalyzePDF(data)
		if analysis.Error != nil {
			log.Debug().Err(analysis.Error).Msg("pdf text layer unavailable")
		}
		if !analysis.IsScanned {
			if r := ParseReceiptText(analysis.ExtractedText, s.now()); r.Amount > 0 {
				r.Method = methodPDFText
				return r, nil
			}
		}
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp":
	default:
		return nil, &ExtractionError{Code: ErrInvalidDocument, Message: "unsupported content type " + contentType}
	}

	if s.ocr == nil {
		return nil, &ExtractionError{Code: ErrMLNotConfigured, Message: "no OCR service configured", Method: methodOCR}
	}
	resp, err := WithRetry(ctx, s.retry, func(ctx context.Context) (*MLReceiptResponse, error) {
		return s.ocr.ScanReceipt(ctx, data, filename)
	})
	if err != nil {
		return nil, err
	}
	return s.fromOCR(resp), nil
}

func (s *ReceiptScanner) fromOCR(resp *MLReceiptResponse) *Receipt {
	r := &Receipt{
		Store:      resp.Store,
		Amount:     resp.Amount,
		Date:       truncateDay(s.now()),
		Items:      resp.Items,
		Tax:        resp.Tax,
		Confidence: resp.Confidence,
		RawText:    resp.RawText,
		Method:     methodOCR,
	}
	if r.Store == "" {
		r.Store = unknownStore
	}
	if r.Items == nil {
		r.Items = []ReceiptItem{}
	}
	if d, err := time.Parse(time.DateOnly, resp.Date); err == nil {
		r.Date = d
	}
	return r
}
