package store

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/castlemilk/finsight/internal/model"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// ErrNotFound is returned (possibly wrapped) when a record does not exist.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// DefaultPageSize applies when a list call passes pageSize <= 0.
const DefaultPageSize = 100

// Store defines the interface for all database operations used by the service
type Store interface {
	// Transaction operations
	CreateTransaction(ctx context.Context, tx *model.Transaction) error
	GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *model.Transaction) error
	DeleteTransaction(ctx context.Context, transactionID string) error
	ListTransactions(ctx context.Context, userID string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Transaction, string, error)

	// Income operations
	CreateIncome(ctx context.Context, income *model.Income) error
	ListIncomes(ctx context.Context, userID string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Income, string, error)

	// Budget operations. A user has at most one budget, keyed by user ID.
	GetBudget(ctx context.Context, userID string) (*model.Budget, error)
	UpsertBudget(ctx context.Context, budget *model.Budget) error

	// Categorization feedback operations
	CreateFeedback(ctx context.Context, feedback *model.CategorizationFeedback) error
	ListFeedback(ctx context.Context, userID string, limit int) ([]*model.CategorizationFeedback, error)
}

// EncodePageToken encodes a document ID into a page token.
func EncodePageToken(docID string) string {
	if docID == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(docID))
}

// DecodePageToken decodes a page token back to a document ID.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
