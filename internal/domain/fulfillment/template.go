package fulfillment

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// RenderTemplate substitutes double-brace placeholders with values from attrs.
// A placeholder with no matching attribute fails the whole render with a
// *TemplateError; partial output is never returned.
func RenderTemplate(template string, attrs map[string]string) (string, error) {
	var missing string
	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := attrs[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return match
		}
		return value
	})
	if missing != "" {
		return "", &TemplateError{Placeholder: missing}
	}
	return rendered, nil
}

// TemplateAttributes builds the placeholder values available to prompt and
// subject templates for an order.
func (o *Order) TemplateAttributes() map[string]string {
	attrs := map[string]string{
		"buyer_name":    o.BuyerName,
		"buyer_email":   o.BuyerEmail,
		"listing_title": o.ListingTitle,
		"intention":     o.Intention,
		"receipt_id":    o.ReceiptID,
	}
	for k, v := range o.Personalization {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(k), " ", "_"))
		if key == "" {
			continue
		}
		if _, exists := attrs[key]; !exists {
			attrs[key] = v
		}
	}
	return attrs
}
