package extraction

import (
	"context"
	"strings"

	"github.com/castlemilk/finsight/internal/model"
	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"
)

const (
	methodRuleBased = "rule-based"
	methodDefault   = "default"

	ruleConfidence    = 0.95
	defaultConfidence = 0.5
)

// Expense is what the categorizer looks at.
type Expense struct {
	Store       string   `json:"store_name"`
	Items       []string `json:"items,omitempty"`
	Description string   `json:"description,omitempty"`
}

func (e Expense) text() string {
	parts := make([]string, 0, len(e.Items)+2)
	parts = append(parts, e.Store)
	parts = append(parts, e.Items...)
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Categorization is a category with how it was decided.
type Categorization struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// Categorizer assigns a category to an expense.
type Categorizer interface {
	Categorize(ctx context.Context, e Expense) (Categorization, error)
}

// Classifier is the trained model behind the keyword rules. *MLClient
// implements it.
type Classifier interface {
	Categorize(ctx context.Context, in MLCategorizeRequest) (*MLCategorizeResponse, error)
}

type keywordRule struct {
	category string
	keywords []string
}

// Rules are checked in order and the first substring hit wins, so a
// store listed under two categories resolves to the earlier one.
var keywordRules = []keywordRule{
	{model.CategoryFood, []string{"restaurant", "cafe", "food", "grocery", "lunch", "dinner", "breakfast",
		"pizza", "burger", "mcdonalds", "kfc", "starbucks", "subway", "dominos",
		"supermarket", "walmart", "kroger", "whole foods", "trader joe"}},
	{model.CategoryTravel, []string{"uber", "lyft", "taxi", "gas", "fuel", "airline", "flight", "hotel",
		"parking", "toll", "car", "transport", "shell", "chevron", "exxon"}},
	{model.CategoryShopping, []string{"amazon", "ebay", "shopping", "mall", "store", "clothing", "fashion",
		"target", "bestbuy", "nike", "adidas", "walmart", "electronics"}},
	{model.CategoryBills, []string{"electricity", "water", "internet", "phone", "insurance", "utility",
		"bill", "payment", "verizon", "att", "tmobile", "comcast"}},
	{model.CategoryEntertainment, []string{"netflix", "spotify", "movie", "cinema", "game", "gym",
		"fitness", "concert", "theater", "xbox", "playstation", "steam"}},
	{model.CategoryHealthcare, []string{"pharmacy", "hospital", "doctor", "clinic", "medical", "cvs",
		"walgreens", "health", "medicine", "dental"}},
}

// MatchKeywords applies the keyword rules to the store name, items and
// description.
func MatchKeywords(e Expense) (Categorization, bool) {
	text := e.text()
	for _, r := range keywordRules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return Categorization{Category: r.category, Confidence: ruleConfidence, Method: methodRuleBased}, true
			}
		}
	}
	return Categorization{}, false
}

// Default is the answer when neither the rules nor the classifier decide.
func Default() Categorization {
	return Categorization{Category: model.CategoryOther, Confidence: defaultConfidence, Method: methodDefault}
}

// ChainCategorizer tries the keyword rules, then the classifier, then
// falls back to Default. Classifier failures are logged, never returned.
type ChainCategorizer struct {
	classifier Classifier
	log        zerolog.Logger
}

// NewChainCategorizer builds the chain. classifier may be nil, in which
// case unmatched expenses get Default.
func NewChainCategorizer(classifier Classifier, log zerolog.Logger) *ChainCategorizer {
	return &ChainCategorizer{classifier: classifier, log: log}
}

func (c *ChainCategorizer) Categorize(ctx context.Context, e Expense) (Categorization, error) {
	if hit, ok := MatchKeywords(e); ok {
		return hit, nil
	}
	if c.classifier == nil {
		return Default(), nil
	}

	resp, err := c.classifier.Categorize(ctx, MLCategorizeRequest{
		StoreName:   e.Store,
		Items:       e.Items,
		Description: e.Description,
	})
	if err != nil {
		c.log.Warn().Err(err).Str("store", e.Store).Msg("ml categorization failed")
		return Default(), nil
	}
	return Categorization{
		Category:   NormalizeCategory(resp.PredictedCategory),
		Confidence: resp.Confidence,
		Method:     methodML,
	}, nil
}

// CachedCategorizer memoises another Categorizer by expense text. Default
// answers are not cached so a recovered classifier gets another chance.
type CachedCategorizer struct {
	next  Categorizer
	cache *ristretto.Cache
}

func NewCachedCategorizer(next Categorizer, maxEntries int64) (*CachedCategorizer, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		// Each entry costs 1, so MaxCost is an entry count.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &CachedCategorizer{next: next, cache: cache}, nil
}

func (c *CachedCategorizer) Categorize(ctx context.Context, e Expense) (Categorization, error) {
	key := e.text()
	if v, ok := c.cache.Get(key); ok {
		return v.(Categorization), nil
	}
	out, err := c.next.Categorize(ctx, e)
	if err != nil {
		return out, err
	}
	if out.Method != methodDefault {
		c.cache.Set(key, out, 1)
	}
	return out, nil
}

// Close releases the cache's background goroutines.
func (c *CachedCategorizer) Close() {
	c.cache.Close()
}
