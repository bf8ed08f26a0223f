package exposures

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/lib/pq"
)

// Editable columns per table. Anything outside these maps is rejected up
// front instead of being spliced into SQL.
var headerEditableColumns = map[string]string{
	"entity":                    "entity",
	"exposure_type":             "exposure_type",
	"document_id":               "document_id",
	"document_date":             "document_date",
	"counterparty_name":         "counterparty_name",
	"currency":                  "currency",
	"total_original_amount":     "total_original_amount",
	"total_open_amount":         "total_open_amount",
	"value_date":                "value_date",
	"status":                    "status",
	"additional_header_details": "additional_header_details",
}

var lineItemEditableColumns = map[string]string{
	"line_number":             "line_number",
	"product_description":     "product_description",
	"quantity":                "quantity",
	"unit_price":              "unit_price",
	"line_item_amount":        "line_item_amount",
	"linked_date":             "linked_date",
	"additional_line_details": "additional_line_details",
}

// splitEditableFields routes request fields into header and line-item
// updates, and reports any field that maps to neither.
func splitEditableFields(fields map[string]interface{}) (header, line map[string]interface{}, unknown []string) {
	header = map[string]interface{}{}
	line = map[string]interface{}{}
	for k, v := range fields {
		matched := false
		if col, ok := headerEditableColumns[k]; ok {
			header[col] = v
			matched = true
		}
		if col, ok := lineItemEditableColumns[k]; ok {
			line[col] = v
			matched = true
		}
		if !matched {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return header, line, unknown
}

func buildSetClause(fields map[string]interface{}, extra string) (string, []interface{}) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	parts := []string{}
	values := []interface{}{}
	for i, col := range cols {
		parts = append(parts, fmt.Sprintf("%s = $%d", col, i+1))
		values = append(values, fields[col])
	}
	if extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, ", "), values
}

// Handler: EditExposureHeadersLineItemsJoined - edits header/line-item
// fields. Any edit resets both header approval and bucketing approval to
// pending so the changed numbers go back through review.
func EditExposureHeadersLineItemsJoined(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string                 `json:"id"` // exposure_header_id
			Fields map[string]interface{} `json:"fields"`
			UserID string                 `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
		if req.ID == "" || len(req.Fields) == 0 {
			respondWithError(w, http.StatusBadRequest, "id and fields are required")
			return
		}

		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusInternalServerError, "Business units not found in context")
			return
		}

		var exposureHeaderID, entity string
		err := db.QueryRow(`
			SELECT h.exposure_header_id, h.entity
			FROM exposure_headers h
			JOIN exposure_line_items l ON h.exposure_header_id = l.exposure_header_id
			WHERE h.exposure_header_id = $1
		`, req.ID).Scan(&exposureHeaderID, &entity)
		if err != nil {
			respondWithError(w, http.StatusNotFound, "Row not found: "+err.Error())
			return
		}

		if !contains(buNames, entity) {
			respondWithError(w, http.StatusForbidden, "Forbidden: entity not accessible")
			return
		}

		headerFields, lineFields, unknown := splitEditableFields(req.Fields)
		if len(unknown) > 0 {
			respondWithError(w, http.StatusBadRequest, "Unknown fields: "+strings.Join(unknown, ", "))
			return
		}

		tx, err := db.Begin()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer tx.Rollback()

		if len(headerFields) > 0 {
			setClause, values := buildSetClause(headerFields, "approval_status = 'Pending'")
			values = append(values, exposureHeaderID)
			query := fmt.Sprintf(
				"UPDATE exposure_headers SET %s WHERE exposure_header_id = $%d",
				setClause, len(values),
			)
			if _, err := tx.Exec(query, values...); err != nil {
				respondWithError(w, http.StatusInternalServerError, "Header update failed: "+err.Error())
				return
			}
		}

		if len(lineFields) > 0 {
			setClause, values := buildSetClause(lineFields, "")
			values = append(values, exposureHeaderID)
			query := fmt.Sprintf(
				"UPDATE exposure_line_items SET %s WHERE exposure_header_id = $%d",
				setClause, len(values),
			)
			if _, err := tx.Exec(query, values...); err != nil {
				respondWithError(w, http.StatusInternalServerError, "Line item update failed: "+err.Error())
				return
			}
		}

		// Edit invalidates prior bucketing approval.
		if _, err := tx.Exec(
			`UPDATE exposure_bucketing SET status_bucketing = 'Pending' WHERE exposure_header_id = $1`,
			exposureHeaderID); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Bucketing reset failed: "+err.Error())
			return
		}

		if err := tx.Commit(); err != nil {
			respondWithError(w, http.StatusInternalServerError, "commit failed: "+err.Error())
			return
		}

		rows, err := db.Query(`
			SELECT h.*, l.*
			FROM exposure_headers h
			JOIN exposure_line_items l ON h.exposure_header_id = l.exposure_header_id
			WHERE h.exposure_header_id = $1
		`, exposureHeaderID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Fetch failed: "+err.Error())
			return
		}
		defer rows.Close()
		results := scanRowsToMaps(rows)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    results,
		})
	}
}

// Handler: GetExposureHeadersLineItems - returns joined exposure_headers and
// exposure_line_items filtered by the caller's accessible entities.
func GetExposureHeadersLineItems(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}

		joinRows, err := db.Query(`
			SELECT h.*, l.*
			FROM exposure_headers h
			JOIN exposure_line_items l ON h.exposure_header_id = l.exposure_header_id
			WHERE h.entity = ANY($1)
		`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch exposure headers/line items")
			return
		}
		defer joinRows.Close()
		joinData := scanRowsToMaps(joinRows)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"buAccessible": buNames,
			"pageData":     joinData,
		})
	}
}

// Handler: GetPendingApprovalHeadersLineItems - same join, filtered to rows
// still awaiting approval.
func GetPendingApprovalHeadersLineItems(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}

		joinRows, err := db.Query(`
			SELECT h.*, l.*
			FROM exposure_headers h
			JOIN exposure_line_items l ON h.exposure_header_id = l.exposure_header_id
			WHERE h.entity = ANY($1) AND h.approval_status NOT IN ('Approved', 'approved')
		`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch pending approval headers/line items")
			return
		}
		defer joinRows.Close()
		joinData := scanRowsToMaps(joinRows)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"buAccessible": buNames,
			"pageData":     joinData,
		})
	}
}
