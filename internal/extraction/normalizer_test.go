package extraction

import "testing"

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Food", "Food"},
		{"  groceries ", "Food"},
		{"TRANSPORTATION", "Travel"},
		{"utilities", "Bills"},
		{"medical", "Healthcare"},
		{"", "Other"},
		{"home improvement", "Home Improvement"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := NormalizeCategory(tc.in); got != tc.want {
				t.Fatalf("NormalizeCategory(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatStoreName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"FRESH FOODS ", "Fresh Foods"},
		{"VISA *STARBUCKS #123", "Starbucks 123"},
		{"POS WHOLE FOODS MARKET 1234567", "Whole Foods Market"},
		{"JOE'S CAFE LLC", "Joe's Cafe"},
		{"ab co", "AB CO"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := FormatStoreName(tc.in); got != tc.want {
				t.Fatalf("FormatStoreName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
