package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	unknownStore   = "Unknown Store"
	minTotal       = 0.01
	maxTotal       = 10000
	storeScanLines = 5
)

// ReceiptItem is one priced line on a receipt.
type ReceiptItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Receipt is the structured content of a scanned receipt.
type Receipt struct {
	Store      string        `json:"store"`
	Amount     float64       `json:"amount"`
	Date       time.Time     `json:"date"`
	Items      []ReceiptItem `json:"items"`
	Tax        float64       `json:"tax"`
	Confidence string        `json:"confidence"`
	RawText    string        `json:"raw_text,omitempty"`
	Method     string        `json:"method"`
}

// ItemNames returns the receipt's item names, for categorization.
func (r *Receipt) ItemNames() []string {
	names := make([]string, len(r.Items))
	for i, it := range r.Items {
		names[i] = it.Name
	}
	return names
}

var (
	storePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(WALMART|TARGET|MCDONALD'S|COSTCO|KROGER|SAFEWAY|PUBLIX)`),
		regexp.MustCompile(`(?i)([A-Z][A-Za-z\s]{2,20})\s*(SUPERCENTER|STORE|MARKET|SHOP)`),
	}
	totalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)TOTAL\s*\$?([0-9]+\.?[0-9]*)`),
		regexp.MustCompile(`(?i)AMOUNT\s*\$?([0-9]+\.?[0-9]*)`),
		regexp.MustCompile(`\$([0-9]+\.[0-9]{2})`),
	}
	taxPattern      = regexp.MustCompile(`(?i)\bTAX\b[^0-9$]*\$?([0-9]+\.[0-9]{2})`)
	receiptDateRe   = regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
	itemPattern     = regexp.MustCompile(`([A-Za-z\s]{3,30})\s+\$([0-9]+\.?[0-9]*)`)
	nonItemKeywords = []string{"TOTAL", "SUBTOTAL", "TAX", "CHANGE"}
)

// Receipts print month first.
var receiptDateFormats = []string{
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"1-2-06",
}

// ParseReceiptText pulls the store, total, date, tax and line items out of
// receipt text. Fields it cannot find keep their defaults: "Unknown
// Store", a zero amount and today's date.
func ParseReceiptText(text string, now time.Time) *Receipt {
	r := &Receipt{
		Store:      unknownStore,
		Date:       truncateDay(now),
		Items:      []ReceiptItem{},
		Confidence: "high",
		RawText:    text,
	}
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		r.Confidence = "low"
		return r
	}

	r.Store = findStore(lines)
	r.Amount = findTotal(lines)
	if d, ok := findDate(lines); ok {
		r.Date = d
	}
	r.Tax = findTax(lines)
	r.Items = findItems(lines)

	if r.Amount == 0 || r.Store == unknownStore {
		r.Confidence = "low"
	}
	return r
}

func findStore(lines []string) string {
	if len(lines) > storeScanLines {
		lines = lines[:storeScanLines]
	}
	for _, line := range lines {
		for _, p := range storePatterns {
			if m := p.FindStringSubmatch(line); m != nil {
				return FormatStoreName(m[1])
			}
		}
	}
	return unknownStore
}

// findTotal returns the largest plausible amount on the receipt.
func findTotal(lines []string) float64 {
	var best float64
	for _, line := range lines {
		for _, p := range totalPatterns {
			for _, m := range p.FindAllStringSubmatch(line, -1) {
				v, err := strconv.ParseFloat(m[1], 64)
				if err != nil || v < minTotal || v > maxTotal {
					continue
				}
				if v > best {
					best = v
				}
			}
		}
	}
	return best
}

func findDate(lines []string) (time.Time, bool) {
	for _, line := range lines {
		m := receiptDateRe.FindString(line)
		if m == "" {
			continue
		}
		for _, layout := range receiptDateFormats {
			if t, err := time.Parse(layout, m); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func findTax(lines []string) float64 {
	for _, line := range lines {
		if strings.Contains(strings.ToUpper(line), "SUBTOTAL") {
			continue
		}
		if m := taxPattern.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v
			}
		}
	}
	return 0
}

func findItems(lines []string) []ReceiptItem {
	items := []ReceiptItem{}
	for _, line := range lines {
		if isSummaryLine(line) {
			continue
		}
		m := itemPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if len(name) < 3 {
			continue
		}
		price, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		items = append(items, ReceiptItem{Name: FormatStoreName(name), Price: price})
	}
	return items
}

func isSummaryLine(line string) bool {
	upper := strings.ToUpper(line)
	for _, kw := range nonItemKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
