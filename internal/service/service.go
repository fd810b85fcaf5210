// Package service exposes the analytics engine, categorization, receipt
// scanning and the underlying ledger as Connect RPC handlers.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/castlemilk/finsight/internal/analytics"
	"github.com/castlemilk/finsight/internal/enrich"
	"github.com/castlemilk/finsight/internal/extraction"
	"github.com/castlemilk/finsight/internal/store"
	"github.com/rs/zerolog"
)

// MLHealthChecker reports on the ML service. *extraction.MLClient
// implements it.
type MLHealthChecker interface {
	HealthCheck(ctx context.Context) (*extraction.MLHealthResponse, error)
}

// AnalyticsService implements finsight.v1.AnalyticsService.
type AnalyticsService struct {
	store       store.Store
	source      *store.Source
	analyzer    *analytics.Analyzer
	categorizer extraction.Categorizer
	scanner     *extraction.ReceiptScanner
	enricher    *enrich.Enricher
	llmProvider string
	ml          MLHealthChecker
	now         func() time.Time
	log         zerolog.Logger
}

type Option func(*AnalyticsService)

func WithCategorizer(c extraction.Categorizer) Option {
	return func(s *AnalyticsService) { s.categorizer = c }
}

func WithScanner(sc *extraction.ReceiptScanner) Option {
	return func(s *AnalyticsService) { s.scanner = sc }
}

// WithEnricher enables LLM insights. provider is reported by Health.
func WithEnricher(e *enrich.Enricher, provider string) Option {
	return func(s *AnalyticsService) {
		s.enricher = e
		s.llmProvider = provider
	}
}

func WithMLHealth(ml MLHealthChecker) Option {
	return func(s *AnalyticsService) { s.ml = ml }
}

func WithClock(now func() time.Time) Option {
	return func(s *AnalyticsService) { s.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *AnalyticsService) { s.log = log }
}

// NewAnalyticsService wires the handlers. Without WithCategorizer, the
// keyword rules alone categorize; without WithScanner, receipts can only
// be plain text or PDFs with a text layer.
func NewAnalyticsService(st store.Store, analyzer *analytics.Analyzer, opts ...Option) *AnalyticsService {
	s := &AnalyticsService{
		store:       st,
		source:      store.NewSource(st),
		analyzer:    analyzer,
		llmProvider: "none",
		now:         time.Now,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.categorizer == nil {
		s.categorizer = extraction.NewChainCategorizer(nil, s.log)
	}
	if s.scanner == nil {
		s.scanner = extraction.NewReceiptScanner(nil, extraction.WithScannerClock(s.now), extraction.WithScannerLogger(s.log))
	}
	return s
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// mapExtractionError maps extraction errors to Connect-RPC error codes.
func mapExtractionError(err error) error {
	var extErr *extraction.ExtractionError
	if !errors.As(err, &extErr) {
		return connect.NewError(connect.CodeInternal, fmt.Errorf("extraction failed: %w", err))
	}

	switch extErr.Code {
	case extraction.ErrMLServiceUnavailable, extraction.ErrMLServiceTimeout, extraction.ErrMLNotConfigured:
		return connect.NewError(connect.CodeUnavailable, errors.New(extErr.Message))
	case extraction.ErrInvalidDocument, extraction.ErrMLServiceRejected, extraction.ErrNoReceiptData:
		return connect.NewError(connect.CodeInvalidArgument, errors.New(extErr.Message))
	default:
		return connect.NewError(connect.CodeInternal, fmt.Errorf("extraction failed: %s", extErr.Message))
	}
}
