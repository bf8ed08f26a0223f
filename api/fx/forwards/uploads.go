package forwards

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/Hardik-nyneos/backend/internal/fileparser"
)

// bookingUploadColumns maps upload header names to forward_bookings
// columns. Unknown headers in a file are ignored rather than rejected, so
// bank extracts can carry extra columns.
var bookingUploadColumns = map[string]string{
	"internal_reference_id":      "internal_reference_id",
	"entity_level_0":             "entity_level_0",
	"entity_level_1":             "entity_level_1",
	"entity_level_2":             "entity_level_2",
	"entity_level_3":             "entity_level_3",
	"local_currency":             "local_currency",
	"order_type":                 "order_type",
	"transaction_type":           "transaction_type",
	"counterparty":               "counterparty",
	"mode_of_delivery":           "mode_of_delivery",
	"delivery_period":            "delivery_period",
	"add_date":                   "add_date",
	"settlement_date":            "settlement_date",
	"maturity_date":              "maturity_date",
	"delivery_date":              "delivery_date",
	"currency_pair":              "currency_pair",
	"base_currency":              "base_currency",
	"quote_currency":             "quote_currency",
	"booking_amount":             "booking_amount",
	"value_type":                 "value_type",
	"actual_value_base_currency": "actual_value_base_currency",
	"spot_rate":                  "spot_rate",
	"forward_points":             "forward_points",
	"bank_margin":                "bank_margin",
	"total_rate":                 "total_rate",
	"value_quote_currency":       "value_quote_currency",
	"value_local_currency":       "value_local_currency",
	"internal_dealer":            "internal_dealer",
	"counterparty_dealer":        "counterparty_dealer",
	"remarks":                    "remarks",
	"narration":                  "narration",
}

var bookingDateColumns = map[string]bool{
	"add_date":        true,
	"settlement_date": true,
	"maturity_date":   true,
	"delivery_date":   true,
}

// Handler: UploadForwardBookingsMulti - CSV/XLS/XLSX booking files. Every
// row lands in Pending Confirmation with processing_status pending; rows
// fail individually with per-row errors.
func UploadForwardBookingsMulti(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondWithError(w, http.StatusBadRequest, "Failed to parse form-data")
			return
		}
		userID := api.GetUserIDFromCtx(r.Context())
		if userID == "" {
			respondWithError(w, http.StatusBadRequest, "Missing user_id")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusForbidden, "No accessible business units found")
			return
		}
		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			respondWithError(w, http.StatusBadRequest, "No files uploaded")
			return
		}

		results := []map[string]interface{}{}
		for _, fileHeader := range files {
			file, err := fileHeader.Open()
			if err != nil {
				results = append(results, map[string]interface{}{"filename": fileHeader.Filename, "success": false, "error": "Failed to open file"})
				continue
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				results = append(results, map[string]interface{}{"filename": fileHeader.Filename, "success": false, "error": "Failed to read file"})
				continue
			}
			rows, err := fileparser.ParseRows(data, fileparser.Ext(fileHeader.Filename))
			if err != nil || len(rows) < 2 {
				results = append(results, map[string]interface{}{"filename": fileHeader.Filename, "success": false, "error": "No data in file"})
				continue
			}

			header := rows[0]
			cols := []string{}
			colIdx := []int{}
			for i, h := range header {
				if col, ok := bookingUploadColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
					cols = append(cols, col)
					colIdx = append(colIdx, i)
				}
			}
			if !containsString(cols, "entity_level_0") || !containsString(cols, "booking_amount") {
				results = append(results, map[string]interface{}{"filename": fileHeader.Filename, "success": false, "error": "Missing required columns: entity_level_0, booking_amount"})
				continue
			}

			placeholders := make([]string, len(cols))
			for i := range cols {
				placeholders[i] = fmt.Sprintf("$%d", i+1)
			}
			insertQuery := fmt.Sprintf(
				"INSERT INTO forward_bookings (%s, status, processing_status) VALUES (%s, 'Pending Confirmation', 'pending')",
				strings.Join(cols, ", "), strings.Join(placeholders, ", "))

			inserted := 0
			rowErrors := []string{}
			for n, row := range rows[1:] {
				values := make([]interface{}, len(cols))
				entity := ""
				badDate := ""
				for j, srcIdx := range colIdx {
					v := ""
					if srcIdx < len(row) {
						v = strings.TrimSpace(row[srcIdx])
					}
					if cols[j] == "entity_level_0" {
						entity = v
					}
					if v == "" {
						values[j] = nil
						continue
					}
					if bookingDateColumns[cols[j]] {
						dt, err := parseFlexibleDate(v)
						if err != nil {
							badDate = cols[j]
							break
						}
						values[j] = dt.Format("2006-01-02")
						continue
					}
					values[j] = v
				}
				if badDate != "" {
					rowErrors = append(rowErrors, fmt.Sprintf("row %d: invalid %s", n+2, badDate))
					continue
				}
				if !containsString(buNames, entity) {
					rowErrors = append(rowErrors, fmt.Sprintf("row %d: business unit not allowed: %s", n+2, entity))
					continue
				}
				if _, err := db.Exec(insertQuery, values...); err != nil {
					rowErrors = append(rowErrors, fmt.Sprintf("row %d: %v", n+2, err))
					continue
				}
				inserted++
			}
			result := map[string]interface{}{
				"filename": fileHeader.Filename,
				"success":  len(rowErrors) == 0,
				"inserted": inserted,
			}
			if len(rowErrors) > 0 {
				result["row_errors"] = rowErrors
			}
			results = append(results, result)
		}
		allOk := api.IsBulkSuccess(results)
		errMsg := ""
		if !allOk {
			errMsg = "one or more files failed"
		}
		api.RespondWithPayload(w, allOk, errMsg, results)
	}
}
