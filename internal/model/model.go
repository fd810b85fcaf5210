// Package model holds the records exchanged between the datastore, the
// analytics engine and the transport layer.
package model

import "time"

// Well-known category labels. Categories are free-form strings; these are
// the ones the categorizer and advisory rules know about.
const (
	CategoryFood          = "Food"
	CategoryTravel        = "Travel"
	CategoryShopping      = "Shopping"
	CategoryBills         = "Bills"
	CategoryEntertainment = "Entertainment"
	CategoryHealthcare    = "Healthcare"
	CategoryOther         = "Other"
)

// Transaction is a single expense owned by a user.
// NOTE: firestore tags keep the PascalCase field names used by existing documents.
type Transaction struct {
	ID        string    `json:"id" firestore:"Id"`
	UserID    string    `json:"user_id" firestore:"UserId"`
	Store     string    `json:"store,omitempty" firestore:"Store"`
	Amount    float64   `json:"amount" firestore:"Amount"`
	Category  string    `json:"category" firestore:"Category"`
	Date      time.Time `json:"date" firestore:"Date"`
	Items     []string  `json:"items,omitempty" firestore:"Items"`
	RawText   string    `json:"raw_text,omitempty" firestore:"RawText"`
	CreatedAt time.Time `json:"created_at" firestore:"CreatedAt"`
}

// Budget is a user's overall monthly spending limit.
type Budget struct {
	ID             string    `json:"id" firestore:"Id"`
	UserID         string    `json:"user_id" firestore:"UserId"`
	MonthlyLimit   float64   `json:"monthly_limit" firestore:"MonthlyLimit"`
	Currency       string    `json:"currency" firestore:"Currency"`
	AlertThreshold float64   `json:"alert_threshold" firestore:"AlertThreshold"`
	CreatedAt      time.Time `json:"created_at" firestore:"CreatedAt"`
	UpdatedAt      time.Time `json:"updated_at" firestore:"UpdatedAt"`
}

// Income is a single income entry.
type Income struct {
	ID          string    `json:"id" firestore:"Id"`
	UserID      string    `json:"user_id" firestore:"UserId"`
	Source      string    `json:"source" firestore:"Source"`
	Category    string    `json:"category" firestore:"Category"`
	Amount      float64   `json:"amount" firestore:"Amount"`
	Currency    string    `json:"currency" firestore:"Currency"`
	Date        time.Time `json:"date" firestore:"Date"`
	IsRecurring bool      `json:"is_recurring" firestore:"IsRecurring"`
	CreatedAt   time.Time `json:"created_at" firestore:"CreatedAt"`
}

// CategorizationFeedback records a user correcting a transaction's category.
type CategorizationFeedback struct {
	ID                string    `json:"id" firestore:"Id"`
	UserID            string    `json:"user_id" firestore:"UserId"`
	TransactionID     string    `json:"transaction_id" firestore:"TransactionId"`
	OriginalCategory  string    `json:"original_category" firestore:"OriginalCategory"`
	CorrectedCategory string    `json:"corrected_category" firestore:"CorrectedCategory"`
	Confidence        *float64  `json:"confidence,omitempty" firestore:"Confidence"`
	CreatedAt         time.Time `json:"created_at" firestore:"CreatedAt"`
}
