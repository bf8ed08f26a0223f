package exposures

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

// Helper: send JSON error response and log
func respondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Println("[ERROR]", errMsg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errMsg,
	})
}

// Helper: check if string in slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Helper: parse DB value to correct Go type
func parseDBValue(col string, val interface{}) interface{} {
	if b, ok := val.([]byte); ok {
		// JSON fields
		if col == "additional_header_details" || col == "additional_line_details" {
			var obj interface{}
			if err := json.Unmarshal(b, &obj); err == nil {
				return obj
			}
		}
		// Numeric fields
		numericFields := map[string]bool{
			"amount_in_local_currency": true,
			"line_item_amount":         true,
			"quantity":                 true,
			"total_open_amount":        true,
			"total_original_amount":    true,
			"unit_price":               true,
			"hedged_amount":            true,
			"running_open_amount":      true,
			"amount_changed":           true,
			"month_1":                  true,
			"month_2":                  true,
			"month_3":                  true,
			"month_4":                  true,
			"month_4_6":                true,
			"month_6plus":              true,
		}
		if numericFields[col] {
			s := string(b)
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		return string(b)
	}
	return val
}

// scanRowsToMaps converts a generic result set into keyed row maps.
func scanRowsToMaps(rows *sql.Rows) []map[string]interface{} {
	cols, _ := rows.Columns()
	out := []map[string]interface{}{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		valPtrs := make([]interface{}, len(cols))
		for i := range vals {
			valPtrs[i] = &vals[i]
		}
		if err := rows.Scan(valPtrs...); err != nil {
			continue
		}
		rowMap := map[string]interface{}{}
		for i, col := range cols {
			rowMap[col] = parseDBValue(col, vals[i])
		}
		out = append(out, rowMap)
	}
	return out
}
