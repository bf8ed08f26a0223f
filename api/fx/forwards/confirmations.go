package forwards

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/Hardik-nyneos/backend/internal/fileparser"
	"github.com/lib/pq"
)

// applyConfirmation matches a booking by internal reference and entity and
// confirms it, but only while it is still awaiting confirmation. The
// confirmed booking is re-queued for the approval workflow.
func applyConfirmation(db *sql.DB, internalRef, entityLevel0, bankTransactionID, swiftUniqueID string, bankConfirmationDate interface{}) (map[string]interface{}, error) {
	updateQuery := `UPDATE forward_bookings SET
			status = 'Confirmed',
			bank_transaction_id = $1,
			swift_unique_id = $2,
			bank_confirmation_date = $3,
			processing_status = 'pending'
		WHERE internal_reference_id = $4 AND status = 'Pending Confirmation' AND entity_level_0 = $5
		RETURNING internal_reference_id, entity_level_0, bank_transaction_id, swift_unique_id, bank_confirmation_date, status, processing_status`
	row := db.QueryRow(updateQuery, bankTransactionID, swiftUniqueID, bankConfirmationDate, internalRef, entityLevel0)
	cols := []string{"internal_reference_id", "entity_level_0", "bank_transaction_id", "swift_unique_id", "bank_confirmation_date", "status", "processing_status"}
	vals := make([]interface{}, len(cols))
	valPtrs := make([]interface{}, len(cols))
	for i := range vals {
		valPtrs[i] = &vals[i]
	}
	if err := row.Scan(valPtrs...); err != nil {
		return nil, fmt.Errorf("no matching record found or already confirmed")
	}
	result := make(map[string]interface{})
	for i, col := range cols {
		result[col] = vals[i]
	}
	return result, nil
}

// Handler: AddForwardConfirmationManualEntry
func AddForwardConfirmationManualEntry(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID               string `json:"user_id"`
			InternalReferenceID  string `json:"internal_reference_id"`
			EntityLevel0         string `json:"entity_level_0"`
			BankTransactionID    string `json:"bank_transaction_id"`
			SwiftUniqueID        string `json:"swift_unique_id"`
			BankConfirmationDate string `json:"bank_confirmation_date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			respondWithError(w, http.StatusBadRequest, "user_id required")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusForbidden, "No accessible business units found")
			return
		}
		if !containsString(buNames, req.EntityLevel0) {
			respondWithError(w, http.StatusForbidden, "You do not have access to this business unit")
			return
		}
		var bankConfirmationDate interface{}
		if req.BankConfirmationDate != "" {
			dt, err := parseFlexibleDate(req.BankConfirmationDate)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "invalid bank_confirmation_date: "+err.Error())
				return
			}
			bankConfirmationDate = dt.Format("2006-01-02")
		}
		result, err := applyConfirmation(db, req.InternalReferenceID, req.EntityLevel0, req.BankTransactionID, req.SwiftUniqueID, bankConfirmationDate)
		if err != nil {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "updated": result})
	}
}

// Handler: UploadForwardConfirmationsMulti - CSV/XLS/XLSX files of bank
// confirmations. Rows fail individually; one bad row does not block the
// rest of the file.
func UploadForwardConfirmationsMulti(db *sql.DB) http.HandlerFunc {
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
			idx := fileparser.HeaderIndex(rows[0])
			get := func(row []string, col string) string {
				i, ok := idx[col]
				if !ok || i >= len(row) {
					return ""
				}
				return row[i]
			}

			confirmed := 0
			rowErrors := []string{}
			for n, row := range rows[1:] {
				internalRef := get(row, "internal_reference_id")
				entity := get(row, "entity_level_0")
				if internalRef == "" {
					rowErrors = append(rowErrors, fmt.Sprintf("row %d: missing internal_reference_id", n+2))
					continue
				}
				if !containsString(buNames, entity) {
					rowErrors = append(rowErrors, fmt.Sprintf("row %d: business unit not allowed: %s", n+2, entity))
					continue
				}
				var bankConfirmationDate interface{}
				if d := get(row, "bank_confirmation_date"); d != "" {
					if dt, err := parseFlexibleDate(d); err == nil {
						bankConfirmationDate = dt.Format("2006-01-02")
					}
				}
				_, err := applyConfirmation(db, internalRef, entity, get(row, "bank_transaction_id"), get(row, "swift_unique_id"), bankConfirmationDate)
				if err != nil {
					rowErrors = append(rowErrors, fmt.Sprintf("row %d (%s): %v", n+2, internalRef, err))
					continue
				}
				confirmed++
			}
			result := map[string]interface{}{
				"filename":  fileHeader.Filename,
				"success":   len(rowErrors) == 0,
				"confirmed": confirmed,
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

// Handler: GetPendingConfirmationBookings - bookings still awaiting a bank
// confirmation, scoped to the caller's entities.
func GetPendingConfirmationBookings(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusForbidden, "No accessible business units found")
			return
		}
		rows, err := db.Query(`SELECT * FROM forward_bookings WHERE status = 'Pending Confirmation' AND entity_level_0 = ANY($1)`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch pending confirmations")
			return
		}
		defer rows.Close()
		data := scanRowsToMaps(rows)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
	}
}
