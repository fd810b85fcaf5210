package service

import (
	"context"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/castlemilk/finsight/internal/auth"
	"github.com/castlemilk/finsight/internal/extraction"
	"github.com/castlemilk/finsight/internal/model"
)

const maxFeedbackList = 100

// Categorize suggests a category for an expense before it is saved.
func (s *AnalyticsService) Categorize(ctx context.Context, req *connect.Request[CategorizeRequest]) (*connect.Response[extraction.Categorization], error) {
	if _, err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Msg.StoreName) == "" {
		return nil, invalidArgument("store_name is required")
	}

	out, err := s.categorizer.Categorize(ctx, extraction.Expense{
		Store:       req.Msg.StoreName,
		Items:       req.Msg.Items,
		Description: req.Msg.Description,
	})
	if err != nil {
		return nil, mapExtractionError(err)
	}
	return connect.NewResponse(&out), nil
}

// SubmitFeedback records a category correction and applies it to the
// transaction.
func (s *AnalyticsService) SubmitFeedback(ctx context.Context, req *connect.Request[FeedbackRequest]) (*connect.Response[FeedbackResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.TransactionID == "" {
		return nil, invalidArgument("transaction_id is required")
	}
	corrected := strings.TrimSpace(req.Msg.CorrectedCategory)
	if corrected == "" {
		return nil, invalidArgument("corrected_category is required")
	}
	if c := req.Msg.Confidence; c != nil && (*c < 0 || *c > 1) {
		return nil, invalidArgument("confidence must be between 0 and 1, got %v", *c)
	}

	tx, err := s.ownedTransaction(ctx, claims.UID, req.Msg.TransactionID)
	if err != nil {
		return nil, err
	}

	feedback := &model.CategorizationFeedback{
		UserID:            claims.UID,
		TransactionID:     tx.ID,
		OriginalCategory:  tx.Category,
		CorrectedCategory: corrected,
		Confidence:        req.Msg.Confidence,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.store.CreateFeedback(ctx, feedback); err != nil {
		return nil, auth.WrapStoreError("record feedback", err)
	}

	updated := false
	if corrected != tx.Category {
		tx.Category = corrected
		if err := s.store.UpdateTransaction(ctx, tx); err != nil {
			return nil, auth.WrapStoreError("update transaction category", err)
		}
		updated = true
	}

	s.log.Info().
		Str("user_id", claims.UID).
		Str("transaction_id", tx.ID).
		Str("from", feedback.OriginalCategory).
		Str("to", corrected).
		Msg("categorization feedback recorded")
	return connect.NewResponse(&FeedbackResponse{Feedback: feedback, Updated: updated}), nil
}

func (s *AnalyticsService) ListFeedback(ctx context.Context, req *connect.Request[ListFeedbackRequest]) (*connect.Response[ListFeedbackResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	limit := req.Msg.Limit
	if limit <= 0 || limit > maxFeedbackList {
		limit = maxFeedbackList
	}
	feedback, err := s.store.ListFeedback(ctx, claims.UID, limit)
	if err != nil {
		return nil, auth.WrapStoreError("list feedback", err)
	}
	if feedback == nil {
		feedback = []*model.CategorizationFeedback{}
	}
	return connect.NewResponse(&ListFeedbackResponse{Feedback: feedback}), nil
}

// ScanReceipt extracts a receipt, suggests its category and optionally
// saves it as a transaction.
func (s *AnalyticsService) ScanReceipt(ctx context.Context, req *connect.Request[ScanReceiptRequest]) (*connect.Response[ScanReceiptResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	filename := req.Msg.Filename
	if filename == "" {
		filename = "receipt"
	}

	scan, err := s.scanner.Scan(ctx, claims.UID, filename, req.Msg.Data)
	if err != nil {
		return nil, mapExtractionError(err)
	}
	receipt := scan.Receipt

	cat, err := s.categorizer.Categorize(ctx, extraction.Expense{Store: receipt.Store, Items: receipt.ItemNames()})
	if err != nil {
		return nil, mapExtractionError(err)
	}

	resp := &ScanReceiptResponse{
		Receipt:        receipt,
		Categorization: &cat,
		ArchiveURI:     scan.ArchiveURI,
	}
	if req.Msg.Save {
		tx := &model.Transaction{
			UserID:    claims.UID,
			Store:     receipt.Store,
			Amount:    receipt.Amount,
			Category:  cat.Category,
			Date:      receipt.Date,
			Items:     receipt.ItemNames(),
			RawText:   receipt.RawText,
			CreatedAt: s.now().UTC(),
		}
		if err := s.store.CreateTransaction(ctx, tx); err != nil {
			return nil, auth.WrapStoreError("save scanned receipt", err)
		}
		resp.Transaction = tx
	}
	return connect.NewResponse(resp), nil
}

// ownedTransaction loads a transaction and checks the caller owns it.
func (s *AnalyticsService) ownedTransaction(ctx context.Context, userID, transactionID string) (*model.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, auth.WrapStoreError("get transaction", err)
	}
	if tx.UserID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("transaction %s belongs to another user", transactionID))
	}
	return tx, nil
}
