package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/castlemilk/finsight/internal/model"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	transactionsCollection = "transactions"
	incomesCollection      = "incomes"
	budgetsCollection      = "budgets"
	feedbackCollection     = "categorization_feedback"
)

// FirestoreStore implements the Store interface using Firestore
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client: client,
	}
}

// notFound maps a Firestore NotFound status onto ErrNotFound.
func notFound(err error, what string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// applyDateAwarePagination handles pagination for queries with date range filters.
// Firestore requires OrderBy on inequality fields first, so we use OrderBy("Date") + OrderBy(__name__).
// The cursor must include both the Date value and the document ID.
func (s *FirestoreStore) applyDateAwarePagination(ctx context.Context, query firestore.Query, collection string, pageSize int32, pageToken string) (firestore.Query, error) {
	query = query.OrderBy("Date", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return query, fmt.Errorf("invalid page token: %w", err)
		}
		cursorDoc, err := s.client.Collection(collection).Doc(docID).Get(ctx)
		if err != nil {
			return query, fmt.Errorf("failed to fetch cursor document: %w", err)
		}
		query = query.StartAfter(cursorDoc.Data()["Date"], docID)
	}

	query = query.Limit(int(pageSize) + 1) // +1 to detect next page
	return query, nil
}

// applyCursorPagination orders by document ID and resumes after the token's document.
func (s *FirestoreStore) applyCursorPagination(query firestore.Query, pageSize int32, pageToken string) (firestore.Query, error) {
	query = query.OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return query, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.StartAfter(docID)
	}

	query = query.Limit(int(pageSize) + 1)
	return query, nil
}

// listDated runs a per-user query over a collection whose documents carry a
// Date field, decoding each page into T.
func listDated[T any](ctx context.Context, s *FirestoreStore, collection, userID string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*T, string, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	// NOTE: Field names must match the firestore struct tags (PascalCase)
	query := s.client.Collection(collection).Query
	if userID != "" {
		query = query.Where("UserId", "==", userID)
	}
	if startDate != nil {
		query = query.Where("Date", ">=", *startDate)
	}
	if endDate != nil {
		query = query.Where("Date", "<=", *endDate)
	}

	var err error
	if startDate != nil || endDate != nil {
		query, err = s.applyDateAwarePagination(ctx, query, collection, pageSize, pageToken)
	} else {
		query, err = s.applyCursorPagination(query, pageSize, pageToken)
	}
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list %s: %w", collection, err)
	}

	var nextPageToken string
	if len(docs) > int(pageSize) {
		docs = docs[:pageSize]
		nextPageToken = EncodePageToken(docs[pageSize-1].Ref.ID)
	}

	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, "", fmt.Errorf("failed to parse %s document %s: %w", collection, doc.Ref.ID, err)
		}
		out = append(out, &v)
	}
	return out, nextPageToken, nil
}

// Transaction operations

func (s *FirestoreStore) CreateTransaction(ctx context.Context, tx *model.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := s.client.Collection(transactionsCollection).Doc(tx.ID).Set(ctx, tx)
	return err
}

func (s *FirestoreStore) GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	doc, err := s.client.Collection(transactionsCollection).Doc(transactionID).Get(ctx)
	if err != nil {
		return nil, notFound(err, "transaction "+transactionID)
	}
	var tx model.Transaction
	if err := doc.DataTo(&tx); err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	return &tx, nil
}

func (s *FirestoreStore) UpdateTransaction(ctx context.Context, tx *model.Transaction) error {
	ref := s.client.Collection(transactionsCollection).Doc(tx.ID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		if _, err := t.Get(ref); err != nil {
			return notFound(err, "transaction "+tx.ID)
		}
		return t.Set(ref, tx)
	})
}

func (s *FirestoreStore) DeleteTransaction(ctx context.Context, transactionID string) error {
	ref := s.client.Collection(transactionsCollection).Doc(transactionID)
	_, err := ref.Delete(ctx, firestore.Exists)
	if err != nil {
		return notFound(err, "transaction "+transactionID)
	}
	return nil
}

func (s *FirestoreStore) ListTransactions(ctx context.Context, userID string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Transaction, string, error) {
	return listDated[model.Transaction](ctx, s, transactionsCollection, userID, startDate, endDate, pageSize, pageToken)
}

// Income operations

func (s *FirestoreStore) CreateIncome(ctx context.Context, income *model.Income) error {
	if income.ID == "" {
		income.ID = uuid.New().String()
	}
	if income.CreatedAt.IsZero() {
		income.CreatedAt = time.Now().UTC()
	}
	_, err := s.client.Collection(incomesCollection).Doc(income.ID).Set(ctx, income)
	return err
}

func (s *FirestoreStore) ListIncomes(ctx context.Context, userID string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Income, string, error) {
	return listDated[model.Income](ctx, s, incomesCollection, userID, startDate, endDate, pageSize, pageToken)
}

// Budget operations

func (s *FirestoreStore) GetBudget(ctx context.Context, userID string) (*model.Budget, error) {
	doc, err := s.client.Collection(budgetsCollection).Doc(userID).Get(ctx)
	if err != nil {
		return nil, notFound(err, "budget for user "+userID)
	}
	var budget model.Budget
	if err := doc.DataTo(&budget); err != nil {
		return nil, fmt.Errorf("failed to parse budget: %w", err)
	}
	return &budget, nil
}

// UpsertBudget uses the user ID as the document ID so a user can never end up
// with two budgets.
func (s *FirestoreStore) UpsertBudget(ctx context.Context, budget *model.Budget) error {
	ref := s.client.Collection(budgetsCollection).Doc(budget.UserID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		now := time.Now().UTC()
		doc, err := t.Get(ref)
		switch {
		case err == nil:
			var existing model.Budget
			if err := doc.DataTo(&existing); err != nil {
				return fmt.Errorf("failed to parse budget: %w", err)
			}
			budget.ID = existing.ID
			budget.CreatedAt = existing.CreatedAt
		case status.Code(err) == codes.NotFound:
			if budget.ID == "" {
				budget.ID = uuid.New().String()
			}
			budget.CreatedAt = now
		default:
			return err
		}
		budget.UpdatedAt = now
		return t.Set(ref, budget)
	})
}

// Feedback operations

func (s *FirestoreStore) CreateFeedback(ctx context.Context, feedback *model.CategorizationFeedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}
	_, err := s.client.Collection(feedbackCollection).Doc(feedback.ID).Set(ctx, feedback)
	return err
}

// ListFeedback lists feedback records for a user, newest first
func (s *FirestoreStore) ListFeedback(ctx context.Context, userID string, limit int) ([]*model.CategorizationFeedback, error) {
	query := s.client.Collection(feedbackCollection).Where("UserId", "==", userID).OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	records := make([]*model.CategorizationFeedback, 0, len(docs))
	for _, doc := range docs {
		var r model.CategorizationFeedback
		if err := doc.DataTo(&r); err != nil {
			return nil, fmt.Errorf("failed to parse feedback %s: %w", doc.Ref.ID, err)
		}
		records = append(records, &r)
	}
	return records, nil
}
