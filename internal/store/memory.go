package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/castlemilk/finsight/internal/model"
	"github.com/google/uuid"
)

// MemoryStore implements Store interface with in-memory storage
type MemoryStore struct {
	mu sync.RWMutex

	transactions map[string]*model.Transaction
	incomes      map[string]*model.Income
	budgets      map[string]*model.Budget // keyed by user ID
	feedback     map[string]*model.CategorizationFeedback
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]*model.Transaction),
		incomes:      make(map[string]*model.Income),
		budgets:      make(map[string]*model.Budget),
		feedback:     make(map[string]*model.CategorizationFeedback),
	}
}

// datedID is the sort key of a record with a Date field.
type datedID struct {
	id   string
	date time.Time
}

// paginateDated orders records the way FirestoreStore does: by (Date, ID)
// when the query has a date range, by ID otherwise. It returns the page's
// IDs and the next page token (empty if no more pages).
func paginateDated(recs []datedID, byDate bool, pageSize int32, pageToken string) ([]string, string, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	sort.Slice(recs, func(i, j int) bool {
		if byDate && !recs[i].date.Equal(recs[j].date) {
			return recs[i].date.Before(recs[j].date)
		}
		return recs[i].id < recs[j].id
	})

	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid page token: %w", err)
		}
		start := -1
		for i, r := range recs {
			if r.id == cursorID {
				start = i + 1
				break
			}
		}
		if start < 0 {
			if byDate {
				return nil, "", fmt.Errorf("cursor record %s: %w", cursorID, ErrNotFound)
			}
			start = sort.Search(len(recs), func(i int) bool { return recs[i].id > cursorID })
		}
		recs = recs[start:]
	}

	var nextToken string
	if int32(len(recs)) > pageSize {
		recs = recs[:pageSize]
		nextToken = EncodePageToken(recs[pageSize-1].id)
	}
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.id
	}
	return ids, nextToken, nil
}

func inRange(t time.Time, startDate, endDate *time.Time) bool {
	if startDate != nil && t.Before(*startDate) {
		return false
	}
	if endDate != nil && t.After(*endDate) {
		return false
	}
	return true
}

// Transaction operations

func (m *MemoryStore) CreateTransaction(ctx context.Context, tx *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	stored := *tx
	m.transactions[tx.ID] = &stored
	return nil
}

// BatchCreateTransactions creates multiple transactions in the memory store.
func (m *MemoryStore) BatchCreateTransactions(ctx context.Context, txs []*model.Transaction) error {
	for _, tx := range txs {
		if err := m.CreateTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) GetTransaction(ctx context.Context, transactionID string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[transactionID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, ErrNotFound)
	}
	out := *tx
	return &out, nil
}

func (m *MemoryStore) UpdateTransaction(ctx context.Context, tx *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[tx.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", tx.ID, ErrNotFound)
	}
	stored := *tx
	m.transactions[tx.ID] = &stored
	return nil
}

func (m *MemoryStore) DeleteTransaction(ctx context.Context, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[transactionID]; !ok {
		return fmt.Errorf("transaction %s: %w", transactionID, ErrNotFound)
	}
	delete(m.transactions, transactionID)
	return nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context, userID string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Transaction, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matching []datedID
	for id, tx := range m.transactions {
		if userID != "" && tx.UserID != userID {
			continue
		}
		if !inRange(tx.Date, startDate, endDate) {
			continue
		}
		matching = append(matching, datedID{id: id, date: tx.Date})
	}

	paginatedIDs, nextToken, err := paginateDated(matching, startDate != nil || endDate != nil, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}
	result := make([]*model.Transaction, 0, len(paginatedIDs))
	for _, id := range paginatedIDs {
		tx := *m.transactions[id]
		result = append(result, &tx)
	}
	return result, nextToken, nil
}

// Income operations

func (m *MemoryStore) CreateIncome(ctx context.Context, income *model.Income) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if income.ID == "" {
		income.ID = uuid.New().String()
	}
	if income.CreatedAt.IsZero() {
		income.CreatedAt = time.Now().UTC()
	}
	stored := *income
	m.incomes[income.ID] = &stored
	return nil
}

func (m *MemoryStore) ListIncomes(ctx context.Context, userID string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Income, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matching []datedID
	for id, income := range m.incomes {
		if userID != "" && income.UserID != userID {
			continue
		}
		if !inRange(income.Date, startDate, endDate) {
			continue
		}
		matching = append(matching, datedID{id: id, date: income.Date})
	}

	paginatedIDs, nextToken, err := paginateDated(matching, startDate != nil || endDate != nil, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}
	result := make([]*model.Income, 0, len(paginatedIDs))
	for _, id := range paginatedIDs {
		income := *m.incomes[id]
		result = append(result, &income)
	}
	return result, nextToken, nil
}

// Budget operations

func (m *MemoryStore) GetBudget(ctx context.Context, userID string) (*model.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	budget, ok := m.budgets[userID]
	if !ok {
		return nil, fmt.Errorf("budget for user %s: %w", userID, ErrNotFound)
	}
	out := *budget
	return &out, nil
}

func (m *MemoryStore) UpsertBudget(ctx context.Context, budget *model.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.budgets[budget.UserID]; ok {
		budget.ID = existing.ID
		budget.CreatedAt = existing.CreatedAt
	} else {
		if budget.ID == "" {
			budget.ID = uuid.New().String()
		}
		budget.CreatedAt = now
	}
	budget.UpdatedAt = now
	stored := *budget
	m.budgets[budget.UserID] = &stored
	return nil
}

// Feedback operations

func (m *MemoryStore) CreateFeedback(ctx context.Context, feedback *model.CategorizationFeedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}
	stored := *feedback
	m.feedback[feedback.ID] = &stored
	return nil
}

// ListFeedback returns the user's most recent feedback first.
func (m *MemoryStore) ListFeedback(ctx context.Context, userID string, limit int) ([]*model.CategorizationFeedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*model.CategorizationFeedback
	for _, fb := range m.feedback {
		if fb.UserID != userID {
			continue
		}
		out := *fb
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ClearUserData removes every record owned by the user.
func (m *MemoryStore) ClearUserData(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, tx := range m.transactions {
		if tx.UserID == userID {
			delete(m.transactions, id)
		}
	}
	for id, income := range m.incomes {
		if income.UserID == userID {
			delete(m.incomes, id)
		}
	}
	for id, fb := range m.feedback {
		if fb.UserID == userID {
			delete(m.feedback, id)
		}
	}
	delete(m.budgets, userID)
	return nil
}
