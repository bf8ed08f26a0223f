package forwards

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strings"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/lib/pq"
)

// bookingEditableColumns is the allow-list for field-level booking updates.
// Anything outside this set is rejected up front.
var bookingEditableColumns = map[string]string{
	"internal_reference_id":           "internal_reference_id",
	"entity_level_0":                  "entity_level_0",
	"entity_level_1":                  "entity_level_1",
	"entity_level_2":                  "entity_level_2",
	"entity_level_3":                  "entity_level_3",
	"local_currency":                  "local_currency",
	"order_type":                      "order_type",
	"transaction_type":                "transaction_type",
	"counterparty":                    "counterparty",
	"counterparty_dealer":             "counterparty_dealer",
	"internal_dealer":                 "internal_dealer",
	"mode_of_delivery":                "mode_of_delivery",
	"delivery_period":                 "delivery_period",
	"add_date":                        "add_date",
	"settlement_date":                 "settlement_date",
	"maturity_date":                   "maturity_date",
	"delivery_date":                   "delivery_date",
	"currency_pair":                   "currency_pair",
	"base_currency":                   "base_currency",
	"quote_currency":                  "quote_currency",
	"booking_amount":                  "booking_amount",
	"value_type":                      "value_type",
	"actual_value_base_currency":      "actual_value_base_currency",
	"spot_rate":                       "spot_rate",
	"forward_points":                  "forward_points",
	"bank_margin":                     "bank_margin",
	"total_rate":                      "total_rate",
	"value_quote_currency":            "value_quote_currency",
	"intervening_rate_quote_to_local": "intervening_rate_quote_to_local",
	"value_local_currency":            "value_local_currency",
	"remarks":                         "remarks",
	"narration":                       "narration",
	"bank_transaction_id":             "bank_transaction_id",
	"swift_unique_id":                 "swift_unique_id",
	"bank_confirmation_date":          "bank_confirmation_date",
}

// GenerateFXRef produces a reference id for bookings created internally,
// e.g. by rollover.
func GenerateFXRef() string {
	return fmt.Sprintf("FX-REF-%d", rand.Intn(900000)+100000)
}

// Handler: AddForwardBookingManualEntry - inserts a single booking in
// Pending Confirmation with processing_status pending.
func AddForwardBookingManualEntry(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string                 `json:"user_id"`
			Fields map[string]interface{} `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.Fields) == 0 {
			respondWithError(w, http.StatusBadRequest, "user_id and fields are required")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}
		entity := str(req.Fields["entity_level_0"])
		if entity == "" || !api.IsEntityAllowed(r.Context(), entity) {
			respondWithError(w, http.StatusForbidden, "You do not have access to this business unit")
			return
		}

		cols := []string{}
		placeholders := []string{}
		values := []interface{}{}
		for field, v := range req.Fields {
			col, ok := bookingEditableColumns[field]
			if !ok {
				respondWithError(w, http.StatusBadRequest, "unknown field: "+field)
				return
			}
			cols = append(cols, col)
			values = append(values, v)
		}
		// deterministic column order for the generated INSERT
		sort.Sort(byColumn{cols, values})
		for i := range cols {
			placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		}
		query := fmt.Sprintf(
			"INSERT INTO forward_bookings (%s, status, processing_status) VALUES (%s, 'Pending Confirmation', 'pending') RETURNING system_transaction_id",
			strings.Join(cols, ", "), strings.Join(placeholders, ", "))
		var bookingID string
		if err := db.QueryRow(query, values...).Scan(&bookingID); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to insert forward booking: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":               true,
			"system_transaction_id": bookingID,
		})
	}
}

type byColumn struct {
	cols []string
	vals []interface{}
}

func (b byColumn) Len() int           { return len(b.cols) }
func (b byColumn) Less(i, j int) bool { return b.cols[i] < b.cols[j] }
func (b byColumn) Swap(i, j int) {
	b.cols[i], b.cols[j] = b.cols[j], b.cols[i]
	b.vals[i], b.vals[j] = b.vals[j], b.vals[i]
}

// Handler: GetEntityRelevantForwardBookings - every booking in the caller's
// entity scope.
func GetEntityRelevantForwardBookings(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}
		rows, err := db.Query(`SELECT * FROM forward_bookings WHERE entity_level_0 = ANY($1)`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch forward bookings")
			return
		}
		defer rows.Close()
		data := scanRowsToMaps(rows)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
	}
}

// Handler: UpdateForwardBookingFields - partial update on a single booking.
// The update re-queues the booking for approval by resetting
// processing_status to pending.
func UpdateForwardBookingFields(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SystemTransactionID string                 `json:"system_transaction_id"`
			Fields              map[string]interface{} `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SystemTransactionID == "" || len(req.Fields) == 0 {
			respondWithError(w, http.StatusBadRequest, "system_transaction_id and at least one field to update must be provided in body")
			return
		}
		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM forward_bookings WHERE system_transaction_id = $1)", req.SystemTransactionID).Scan(&exists)
		if err != nil || !exists {
			respondWithError(w, http.StatusNotFound, "No matching forward booking found")
			return
		}

		cols := []string{}
		values := []interface{}{}
		for field, v := range req.Fields {
			col, ok := bookingEditableColumns[field]
			if !ok {
				respondWithError(w, http.StatusBadRequest, "unknown field: "+field)
				return
			}
			cols = append(cols, col)
			values = append(values, v)
		}
		sort.Sort(byColumn{cols, values})
		setClause := make([]string, len(cols))
		for i, col := range cols {
			setClause[i] = fmt.Sprintf("%s = $%d", col, i+1)
		}
		setClause = append(setClause, "processing_status = 'pending'")
		values = append(values, req.SystemTransactionID)
		updateQuery := fmt.Sprintf("UPDATE forward_bookings SET %s WHERE system_transaction_id = $%d RETURNING *",
			strings.Join(setClause, ", "), len(values))
		rows, err := db.Query(updateQuery, values...)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to update forward booking: "+err.Error())
			return
		}
		defer rows.Close()
		updated := scanRowsToMaps(rows)
		if len(updated) == 0 {
			respondWithError(w, http.StatusNotFound, "No matching forward booking found after update")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "updated": updated[0]})
	}
}

// Handler: BulkUpdateForwardBookingProcessingStatus - bookings already in
// Delete-approval are deleted outright; the rest move to the requested
// Approved/Rejected status. Approval also confirms the booking.
func BulkUpdateForwardBookingProcessingStatus(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID               string   `json:"user_id"`
			SystemTransactionIDs []string `json:"system_transaction_ids"`
			ProcessingStatus     string   `json:"processing_status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			respondWithError(w, http.StatusBadRequest, "user_id required")
			return
		}
		if len(req.SystemTransactionIDs) == 0 || (req.ProcessingStatus != "Approved" && req.ProcessingStatus != "Rejected") {
			respondWithError(w, http.StatusBadRequest, "system_transaction_ids (array) and valid processing_status (Approved/Rejected) required")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusForbidden, "No accessible business units found")
			return
		}

		delRows, err := db.Query(`SELECT system_transaction_id, entity_level_0 FROM forward_bookings WHERE system_transaction_id = ANY($1) AND processing_status = 'Delete-approval'`, pq.Array(req.SystemTransactionIDs))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		var deletedIds []string
		for delRows.Next() {
			var id, entityLevel0 string
			if err := delRows.Scan(&id, &entityLevel0); err == nil && containsString(buNames, entityLevel0) {
				deletedIds = append(deletedIds, id)
			}
		}
		delRows.Close()
		if len(deletedIds) > 0 {
			if _, err := db.Exec(`DELETE FROM forward_bookings WHERE system_transaction_id = ANY($1) AND processing_status = 'Delete-approval'`, pq.Array(deletedIds)); err != nil {
				respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}

		updateIds := []string{}
		for _, id := range req.SystemTransactionIDs {
			if !containsString(deletedIds, id) {
				updateIds = append(updateIds, id)
			}
		}
		var updatedRows []map[string]interface{}
		if len(updateIds) > 0 {
			rows, err := db.Query(`SELECT system_transaction_id, entity_level_0 FROM forward_bookings WHERE system_transaction_id = ANY($1)`, pq.Array(updateIds))
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			var eligibleIds []string
			for rows.Next() {
				var id, entityLevel0 string
				if err := rows.Scan(&id, &entityLevel0); err == nil && containsString(buNames, entityLevel0) {
					eligibleIds = append(eligibleIds, id)
				}
			}
			rows.Close()
			if len(eligibleIds) > 0 {
				var resultRows *sql.Rows
				if req.ProcessingStatus == "Approved" {
					resultRows, err = db.Query(`UPDATE forward_bookings SET processing_status = $1, status = 'Confirmed' WHERE system_transaction_id = ANY($2) RETURNING *`, req.ProcessingStatus, pq.Array(eligibleIds))
				} else {
					resultRows, err = db.Query(`UPDATE forward_bookings SET processing_status = $1 WHERE system_transaction_id = ANY($2) RETURNING *`, req.ProcessingStatus, pq.Array(eligibleIds))
				}
				if err != nil {
					respondWithError(w, http.StatusInternalServerError, err.Error())
					return
				}
				updatedRows = scanRowsToMaps(resultRows)
				resultRows.Close()
			}
		}
		if len(updatedRows) == 0 && len(deletedIds) == 0 {
			respondWithError(w, http.StatusNotFound, "No matching forward bookings found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "updated": updatedRows, "deleted": deletedIds})
	}
}

// Handler: BulkDeleteForwardBookings - stages bookings for deletion by
// marking processing_status Delete-approval. The actual delete happens in
// the bulk processing-status update.
func BulkDeleteForwardBookings(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID               string   `json:"user_id"`
			SystemTransactionIDs []string `json:"system_transaction_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			respondWithError(w, http.StatusBadRequest, "user_id required")
			return
		}
		if len(req.SystemTransactionIDs) == 0 {
			respondWithError(w, http.StatusBadRequest, "system_transaction_ids (array) required")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusForbidden, "No accessible business units found")
			return
		}
		rows, err := db.Query(`SELECT system_transaction_id, entity_level_0 FROM forward_bookings WHERE system_transaction_id = ANY($1)`, pq.Array(req.SystemTransactionIDs))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		var eligibleIds []string
		for rows.Next() {
			var id, entityLevel0 string
			if err := rows.Scan(&id, &entityLevel0); err == nil && containsString(buNames, entityLevel0) {
				eligibleIds = append(eligibleIds, id)
			}
		}
		rows.Close()
		if len(eligibleIds) == 0 {
			respondWithError(w, http.StatusNotFound, "No matching forward bookings found")
			return
		}
		resultRows, err := db.Query(`UPDATE forward_bookings SET processing_status = 'Delete-approval' WHERE system_transaction_id = ANY($1) RETURNING *`, pq.Array(eligibleIds))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer resultRows.Close()
		updated := scanRowsToMaps(resultRows)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "updated": updated})
	}
}

// Handler: GetForwardBookingList - approved, confirmed bookings with the
// booking_amount replaced by the latest ledger running_open_amount when a
// ledger entry exists.
func GetForwardBookingList(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			respondWithError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}
		query := `
			SELECT
				system_transaction_id,
				internal_reference_id,
				currency_pair,
				booking_amount,
				total_rate AS spot_rate,
				maturity_date,
				order_type,
				entity_level_0,
				counterparty
			FROM forward_bookings
			WHERE entity_level_0 = ANY($1)
				AND status NOT IN ('Cancelled', 'Pending Confirmation')
				AND processing_status = 'Approved'
		`
		rows, err := db.Query(query, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch forward booking list")
			return
		}
		defer rows.Close()
		data := scanRowsToMaps(rows)
		for _, rowMap := range data {
			bookingID := str(rowMap["system_transaction_id"])
			if bookingID == "" {
				continue
			}
			var openAmount float64
			err := db.QueryRow(`SELECT running_open_amount FROM forward_booking_ledger WHERE booking_id = $1 ORDER BY ledger_sequence DESC LIMIT 1`, bookingID).Scan(&openAmount)
			if err == nil {
				rowMap["booking_amount"] = openAmount
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
	}
}
