package extraction

import (
	"regexp"
	"strings"

	"github.com/castlemilk/finsight/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// categoryAliases maps labels other systems produce onto ours.
var categoryAliases = map[string]string{
	"food":           model.CategoryFood,
	"groceries":      model.CategoryFood,
	"dining":         model.CategoryFood,
	"restaurants":    model.CategoryFood,
	"travel":         model.CategoryTravel,
	"transport":      model.CategoryTravel,
	"transportation": model.CategoryTravel,
	"shopping":       model.CategoryShopping,
	"bills":          model.CategoryBills,
	"utilities":      model.CategoryBills,
	"entertainment":  model.CategoryEntertainment,
	"healthcare":     model.CategoryHealthcare,
	"health":         model.CategoryHealthcare,
	"medical":        model.CategoryHealthcare,
	"other":          model.CategoryOther,
	"":               model.CategoryOther,
}

var (
	prefixPattern = regexp.MustCompile(`(?i)^(pos |eftpos |visa |mastercard |amex |paypal \*)`)
	suffixPattern = regexp.MustCompile(`(?i)\s+(pty|ltd|inc|corp|llc)\.?$`)
	longNumbers   = regexp.MustCompile(`\d{6,}`)
	specialChars  = regexp.MustCompile(`[*#]+`)
)

// NormalizeCategory maps a free-form label to a known category where one
// matches and title-cases it otherwise.
func NormalizeCategory(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if c, ok := categoryAliases[key]; ok {
		return c
	}
	return cases.Title(language.English).String(key)
}

// FormatStoreName cleans a raw store name for display.
func FormatStoreName(raw string) string {
	cleaned := prefixPattern.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = suffixPattern.ReplaceAllString(cleaned, "")
	cleaned = longNumbers.ReplaceAllString(cleaned, "")
	cleaned = specialChars.ReplaceAllString(cleaned, "")

	caser := cases.Title(language.English)
	words := strings.Fields(cleaned)
	for i, word := range words {
		if len(word) > 2 {
			words[i] = caser.String(strings.ToLower(word))
		} else {
			words[i] = strings.ToUpper(word)
		}
	}

	result := strings.Join(words, " ")
	if len(result) > 50 {
		result = strings.TrimSpace(result[:50])
	}
	return result
}
