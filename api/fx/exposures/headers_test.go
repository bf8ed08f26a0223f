package exposures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEditableFields(t *testing.T) {
	header, line, unknown := splitEditableFields(map[string]interface{}{
		"currency":            "USD",
		"total_open_amount":   5000.0,
		"quantity":            3,
		"product_description": "widgets",
		"drop_table":          "x",
		"approved_by":         "someone",
	})
	assert.Equal(t, map[string]interface{}{"currency": "USD", "total_open_amount": 5000.0}, header)
	assert.Equal(t, map[string]interface{}{"quantity": 3, "product_description": "widgets"}, line)
	assert.Equal(t, []string{"approved_by", "drop_table"}, unknown)
}

func TestSplitEditableFieldsEmpty(t *testing.T) {
	header, line, unknown := splitEditableFields(map[string]interface{}{})
	assert.Empty(t, header)
	assert.Empty(t, line)
	assert.Empty(t, unknown)
}

func TestBuildSetClauseOrdersColumns(t *testing.T) {
	clause, values := buildSetClause(map[string]interface{}{
		"currency":   "USD",
		"status":     "Open",
		"value_date": "2025-06-15",
	}, "")
	assert.Equal(t, "currency = $1, status = $2, value_date = $3", clause)
	assert.Equal(t, []interface{}{"USD", "Open", "2025-06-15"}, values)
}

func TestBuildSetClauseAppendsExtra(t *testing.T) {
	clause, values := buildSetClause(map[string]interface{}{"currency": "USD"}, "approval_status = 'pending'")
	assert.Equal(t, "currency = $1, approval_status = 'pending'", clause)
	require.Len(t, values, 1)
}

func TestFilterAllowedBucketingColumns(t *testing.T) {
	kept, rejected := filterAllowed(map[string]interface{}{
		"month_1":     1000,
		"month_6plus": 200,
		"comments":    "reviewed",
		"status":      "Approved",
	}, bucketingEditableColumns)
	assert.Equal(t, map[string]interface{}{"month_1": 1000, "month_6plus": 200, "comments": "reviewed"}, kept)
	assert.Equal(t, []string{"status"}, rejected)
}

func TestFilterAllowedHedgingColumns(t *testing.T) {
	kept, rejected := filterAllowed(map[string]interface{}{
		"hedge_month_1": 500,
		"month_1":       500,
	}, hedgingEditableColumns)
	assert.Equal(t, map[string]interface{}{"hedge_month_1": 500}, kept)
	assert.Equal(t, []string{"month_1"}, rejected)
}
