package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"ASC uppercase returns ASC", "ASC", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"DESC uppercase returns DESC", "DESC", "DESC"},
		{"invalid value returns DESC", "INVALID", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE orders;--", "DESC"},
		{"whitespace only returns DESC", "   ", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSortOrder(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		defaultField string
		expected     string
	}{
		{"empty string returns default", "", "ordered_at", "ordered_at"},
		{"valid field returns field", "buyer_name", "ordered_at", "buyer_name"},
		{"valid field status returns field", "status", "ordered_at", "status"},
		{"invalid field returns default", "invalid_field", "ordered_at", "ordered_at"},
		{"sql injection attempt returns default", "id; DROP TABLE orders;--", "ordered_at", "ordered_at"},
		{"case sensitive uppercase invalid", "STATUS", "ordered_at", "ordered_at"},
		{"whitespace only returns default", "   ", "ordered_at", "ordered_at"},
		{"whitespace around valid field returns field", "  receipt_id  ", "ordered_at", "receipt_id"},
		{"field with spaces injection returns default", "status orders", "ordered_at", "ordered_at"},
		{"field with quotes injection returns default", "status'--", "ordered_at", "ordered_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSortField(tt.input, OrderSortFields, tt.defaultField)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"OrderSortFields":    OrderSortFields,
		"CategorySortFields": CategorySortFields,
	}

	commonFields := []string{"id", "created_at", "updated_at"}

	for name, whitelist := range whitelists {
		t.Run(name+" contains common fields", func(t *testing.T) {
			for _, field := range commonFields {
				assert.True(t, whitelist[field], "%s should contain '%s'", name, field)
			}
		})

		t.Run(name+" is not empty", func(t *testing.T) {
			assert.Greater(t, len(whitelist), 3, "%s should have more than 3 fields", name)
		})
	}
}

func TestSQLInjectionPrevention(t *testing.T) {
	injectionPayloads := []string{
		"id; DROP TABLE orders;--",
		"id' OR '1'='1",
		"id\"; DROP TABLE orders;--",
		"id UNION SELECT * FROM credentials",
		"id ORDER BY 1",
		"id, (SELECT access_token FROM credentials)",
		"CASE WHEN 1=1 THEN id ELSE buyer_name END",
		"id/**/;DROP TABLE orders",
		"id\n; DROP TABLE orders",
		"' OR ''='",
	}

	for _, payload := range injectionPayloads {
		t.Run("field: "+payload[:min(len(payload), 30)], func(t *testing.T) {
			result := ValidateSortField(payload, OrderSortFields, "ordered_at")
			assert.Equal(t, "ordered_at", result, "injection payload should be rejected: %s", payload)
		})

		t.Run("order: "+payload[:min(len(payload), 30)], func(t *testing.T) {
			result := ValidateSortOrder(payload)
			assert.Equal(t, "DESC", result, "injection payload should be rejected: %s", payload)
		})
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
