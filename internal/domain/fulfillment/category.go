package fulfillment

import (
	"strings"

	"github.com/spellworks/backend/internal/domain/shared"
)

// Category is a product category that owns the prompt template used to
// generate content for its orders. Listing titles are matched against
// category keywords during sync to pick the category for a new order.
type Category struct {
	shared.BaseEntity
	Name        string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Description string
	// PromptTemplate uses double-brace placeholders ({{buyer_name}},
	// {{intention}}, ...) filled from order attributes at generation time.
	PromptTemplate string `gorm:"not null"`
	// EmailSubject is the subject line for delivery emails, also templated.
	EmailSubject string
	Active       bool `gorm:"not null;default:true"`
	DisplayOrder int  `gorm:"not null;default:0"`
}

// NewCategory creates an active category.
func NewCategory(name, slug, promptTemplate string) *Category {
	return &Category{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		Slug:           slug,
		PromptTemplate: promptTemplate,
		Active:         true,
	}
}

// MatchesTitle reports whether a listing title belongs to this category.
// Matching is a case-insensitive substring check on the category name and slug.
func (c *Category) MatchesTitle(title string) bool {
	t := strings.ToLower(title)
	if c.Name != "" && strings.Contains(t, strings.ToLower(c.Name)) {
		return true
	}
	return c.Slug != "" && strings.Contains(t, strings.ToLower(strings.ReplaceAll(c.Slug, "-", " ")))
}

// ResolveCategory picks the first active category matching the listing title,
// honoring display order. Returns nil when nothing matches.
func ResolveCategory(categories []Category, listingTitle string) *Category {
	for i := range categories {
		c := &categories[i]
		if !c.Active {
			continue
		}
		if c.MatchesTitle(listingTitle) {
			return c
		}
	}
	return nil
}
