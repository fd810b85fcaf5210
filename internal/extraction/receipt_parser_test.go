package extraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var scanNow = time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)

const groceryReceipt = `FRESH FOODS MARKET
123 Main St
01/15/2024 14:32
Organic Milk $4.99
Bread $3.50
SUBTOTAL $8.49
TAX $0.68
TOTAL $9.17
`

func TestParseReceiptText(t *testing.T) {
	r := ParseReceiptText(groceryReceipt, scanNow)

	assert.Equal(t, "Fresh Foods", r.Store)
	assert.Equal(t, 9.17, r.Amount)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, 0.68, r.Tax)
	assert.Equal(t, []ReceiptItem{{Name: "Organic Milk", Price: 4.99}, {Name: "Bread", Price: 3.50}}, r.Items)
	assert.Equal(t, "high", r.Confidence)
	assert.Equal(t, []string{"Organic Milk", "Bread"}, r.ItemNames())
}

func TestParseReceiptText_KnownChain(t *testing.T) {
	r := ParseReceiptText("KROGER #512\nAMOUNT 42.10\n3/2/24\nThank you\n", scanNow)

	assert.Equal(t, "Kroger", r.Store)
	assert.Equal(t, 42.10, r.Amount)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), r.Date)
}

func TestParseReceiptText_Defaults(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		r := ParseReceiptText("  \n", scanNow)

		assert.Equal(t, "Unknown Store", r.Store)
		assert.Zero(t, r.Amount)
		assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), r.Date)
		assert.Empty(t, r.Items)
		assert.Equal(t, "low", r.Confidence)
	})

	t.Run("no store or total", func(t *testing.T) {
		r := ParseReceiptText("thanks\nsee you soon\n", scanNow)

		assert.Equal(t, "Unknown Store", r.Store)
		assert.Equal(t, "low", r.Confidence)
	})
}

func TestFindTotal_IgnoresImplausibleAmounts(t *testing.T) {
	lines := []string{"TOTAL $0.00", "Card balance $25000.00", "TOTAL $18.25"}
	assert.Equal(t, 18.25, findTotal(lines))
}
