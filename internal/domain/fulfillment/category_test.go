package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveCategory(t *testing.T) {
	prosperity := *NewCategory("Prosperity", "prosperity", "p")
	love := *NewCategory("Love", "love", "l")
	inactive := *NewCategory("Protection", "protection", "x")
	inactive.Active = false
	categories := []Category{inactive, prosperity, love}

	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"matches by name", "Custom Prosperity Ritual", "prosperity"},
		{"matches case-insensitively", "LOVE spell deluxe", "love"},
		{"inactive skipped", "Protection charm", ""},
		{"no match", "Gift card", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCategory(categories, tt.title)
			if tt.expected == "" {
				assert.Nil(t, got)
				return
			}
			assert.NotNil(t, got)
			assert.Equal(t, tt.expected, got.Slug)
		})
	}
}

func TestCategory_MatchesTitle_SlugWithHyphen(t *testing.T) {
	c := NewCategory("", "full-moon", "t")
	assert.True(t, c.MatchesTitle("Full Moon ceremony kit"))
	assert.False(t, c.MatchesTitle("New moon kit"))
}
