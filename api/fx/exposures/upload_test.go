package exposures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessUnitColumn(t *testing.T) {
	assert.Equal(t, "applicant_name", businessUnitColumn("LC"))
	assert.Equal(t, "entity", businessUnitColumn("PO"))
	assert.Equal(t, "entity", businessUnitColumn("SO"))
	assert.Equal(t, "company", businessUnitColumn("creditors"))
	assert.Equal(t, "company", businessUnitColumn("debitors"))
	assert.Equal(t, "company", businessUnitColumn("grn"))
	assert.Equal(t, "", businessUnitColumn("unknown"))
}

func TestAbsAmount(t *testing.T) {
	assert.Equal(t, 500.0, absAmount(-500.0))
	assert.Equal(t, 500.0, absAmount(500.0))
	assert.Equal(t, 500.0, absAmount("-500"))
	assert.Equal(t, 12.5, absAmount("-12.5"))
	assert.Equal(t, "n/a", absAmount("n/a"))
	assert.Nil(t, absAmount(nil))
}

func TestUnknownHeadersRejectsColumnsOutsideAllowList(t *testing.T) {
	allowed := map[string]bool{"entity": true, "po_number": true, "po_amount": true}

	assert.Empty(t, unknownHeaders([]string{"entity", "po_amount"}, allowed))
	assert.Equal(t, []string{"po_currency"}, unknownHeaders([]string{"entity", "po_currency"}, allowed))
	// A header crafted to escape the insert column list is not a column name.
	assert.Equal(t,
		[]string{"po_amount) VALUES ('x'); DROP TABLE input_purchase_orders; --"},
		unknownHeaders([]string{"po_amount) VALUES ('x'); DROP TABLE input_purchase_orders; --"}, allowed))
	assert.Empty(t, unknownHeaders(nil, allowed))
}

func TestMapStagedRowLiteralsAndColumns(t *testing.T) {
	target := stagingTarget{Field: "input_purchase_orders", DataType: "PO", TableName: "input_purchase_orders"}
	staged := map[string]interface{}{
		"entity":       "BU1",
		"po_number":    "PO-1001",
		"po_amount":    -25000.0,
		"counterparty": "Acme",
	}
	mappings := []uploadMapping{
		{SourceCol: "entity", TargetTable: "exposure_headers", TargetField: "entity"},
		{SourceCol: "po_number", TargetTable: "exposure_headers", TargetField: "document_id"},
		{SourceCol: "po_amount", TargetTable: "exposure_headers", TargetField: "total_original_amount"},
		{SourceCol: "PO", TargetTable: "exposure_headers", TargetField: "exposure_type"},
		{SourceCol: "Open", TargetTable: "exposure_headers", TargetField: "status"},
		{SourceCol: "counterparty", TargetTable: "exposure_line_items", TargetField: "product_description"},
	}

	out, details := mapStagedRow(staged, mappings, target, "exposure_headers", "additional_header_details")
	require.NotNil(t, out)
	assert.Equal(t, "BU1", out["entity"])
	assert.Equal(t, "PO-1001", out["document_id"])
	assert.Equal(t, 25000.0, out["total_original_amount"], "amounts are stored as magnitudes")
	assert.Equal(t, "PO", out["exposure_type"])
	assert.Equal(t, "Open", out["status"])
	assert.NotContains(t, out, "product_description", "line-item mappings stay out of the header row")
	assert.Empty(t, details)
}

func TestMapStagedRowDetailsBlob(t *testing.T) {
	target := stagingTarget{Field: "input_grn", DataType: "grn", TableName: "input_grn"}
	staged := map[string]interface{}{"grn_number": "GRN-1", "plant": "P01"}
	mappings := []uploadMapping{
		{SourceCol: "plant", TargetTable: "exposure_headers", TargetField: "additional_header_details"},
		{SourceCol: "input_grn", TargetTable: "exposure_headers", TargetField: "additional_header_details"},
	}

	out, details := mapStagedRow(staged, mappings, target, "exposure_headers", "additional_header_details")
	assert.Empty(t, out)
	assert.Equal(t, "P01", details["plant"])
	// Whole-row mapping stores the staged row itself.
	assert.Equal(t, staged, details["input_grn"])
}

func TestMapStagedRowIgnoresOtherTables(t *testing.T) {
	target := stagingTarget{Field: "input_sales_orders", DataType: "SO", TableName: "input_sales_orders"}
	mappings := []uploadMapping{
		{SourceCol: "so_number", TargetTable: "exposure_line_items", TargetField: "line_number"},
	}
	out, details := mapStagedRow(map[string]interface{}{"so_number": "SO-1"}, mappings, target, "exposure_headers", "additional_header_details")
	assert.Empty(t, out)
	assert.Empty(t, details)
}
