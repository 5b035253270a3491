package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"rupee symbol with separator", "₹1,299", 1299},
		{"rs prefix with decimals", "Rs. 3,990.00", 3990},
		{"plain number", "1299", 1299},
		{"decimal only", "499.50", 499.5},
		{"embedded in text", "M.R.P.: ₹2,499 (inclusive of taxes)", 2499},
		{"no digits", "Price unavailable", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parsePrice(tt.input))
		})
	}
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 1234, parseCount("1,234 ratings"))
	assert.Equal(t, 87, parseCount("87 reviews"))
	assert.Equal(t, 0, parseCount("no reviews yet"))
	assert.Equal(t, 0, parseCount(""))
}

func TestParseRating(t *testing.T) {
	rating := parseRating("4.2 out of 5 stars")
	require.NotNil(t, rating)
	assert.Equal(t, 4.2, *rating)

	rating = parseRating("3.8")
	require.NotNil(t, rating)
	assert.Equal(t, 3.8, *rating)

	// Out-of-range and non-numeric text produce no rating at all.
	assert.Nil(t, parseRating("9.9 out of 10"))
	assert.Nil(t, parseRating("No ratings"))
	assert.Nil(t, parseRating(""))
}

func TestDetectGender(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Clothing > Men > T-Shirts", "Men"},
		{"Women's Western Wear", "Women"},
		{"WOMEN / Dresses", "Women"},
		{"Unisex Oversized Hoodie", "Unisex"},
		{"Home & Kitchen", ""},
		// "women" contains "men"; the longer match must win.
		{"Fashion for women and kids", "Women"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, detectGender(tt.input), "input: %s", tt.input)
	}
}

func TestCleanSpace(t *testing.T) {
	assert.Equal(t, "Cotton Oversized Tee", cleanSpace("  Cotton \n Oversized\t Tee  "))
	assert.Equal(t, "", cleanSpace("   "))
}

func TestUniqueStrings(t *testing.T) {
	got := uniqueStrings([]string{"M", "L", "M", "", "XL", "L"})
	assert.Equal(t, []string{"M", "L", "XL"}, got)
}

func TestLastPathSegment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.bluorng.com/products/graphic-hoodie", "graphic-hoodie"},
		{"https://www.bluorng.com/products/graphic-hoodie/", "graphic-hoodie"},
		{"https://www.bluorng.com/products/graphic-hoodie?variant=123", "graphic-hoodie"},
		{"https://www.thesouledstore.com/product/tee#reviews", "tee"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, lastPathSegment(tt.input), "input: %s", tt.input)
	}
}
