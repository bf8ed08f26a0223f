package forwards

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/lib/pq"
)

// Handler: GetPendingCancellations - cancellation records whose bookings
// are still awaiting checker approval, scoped to the caller's entities.
func GetPendingCancellations(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusForbidden, "No accessible business units found")
			return
		}
		rows, err := db.Query(`
			SELECT fc.*, fb.internal_reference_id, fb.entity_level_0, fb.processing_status
			FROM forward_cancellations fc
			JOIN forward_bookings fb ON fc.booking_id = fb.system_transaction_id
			WHERE fb.entity_level_0 = ANY($1) AND LOWER(fb.processing_status) = 'pending'`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch pending cancellations")
			return
		}
		defer rows.Close()
		data := scanRowsToMaps(rows)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
	}
}

// Handler: GetPendingRollovers
func GetPendingRollovers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusForbidden, "No accessible business units found")
			return
		}
		rows, err := db.Query(`
			SELECT fr.*, fb.internal_reference_id, fb.entity_level_0, fb.processing_status
			FROM forward_rollovers fr
			JOIN forward_bookings fb ON fr.booking_id = fb.system_transaction_id
			WHERE fb.entity_level_0 = ANY($1) AND LOWER(fb.processing_status) = 'pending'`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch pending rollovers")
			return
		}
		defer rows.Close()
		data := scanRowsToMaps(rows)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
	}
}

// statusRequest resolves checker decisions for the satellite records of one
// audit table by moving the underlying bookings through the processing
// workflow.
func statusRequest(db *sql.DB, auditTable string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID     string   `json:"user_id"`
			BookingIDs []string `json:"booking_ids"`
			Decision   string   `json:"decision"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.BookingIDs) == 0 {
			respondWithError(w, http.StatusBadRequest, "user_id and booking_ids (array) required")
			return
		}
		if req.Decision != "Approved" && req.Decision != "Rejected" {
			respondWithError(w, http.StatusBadRequest, "decision must be Approved or Rejected")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusForbidden, "No accessible business units found")
			return
		}
		rows, err := db.Query(`SELECT system_transaction_id, entity_level_0 FROM forward_bookings WHERE system_transaction_id = ANY($1)`, pq.Array(req.BookingIDs))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		eligibleIds := []string{}
		for rows.Next() {
			var id, entityLevel0 string
			if err := rows.Scan(&id, &entityLevel0); err == nil && containsString(buNames, entityLevel0) {
				eligibleIds = append(eligibleIds, id)
			}
		}
		rows.Close()
		if len(eligibleIds) == 0 {
			respondWithError(w, http.StatusNotFound, "No matching "+auditTable+" records found")
			return
		}
		result, err := db.Exec(`UPDATE forward_bookings SET processing_status = $1 WHERE system_transaction_id = ANY($2)`, req.Decision, pq.Array(eligibleIds))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		updated, _ := result.RowsAffected()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "updated": updated, "booking_ids": eligibleIds})
	}
}

// Handler: CancellationStatusRequest
func CancellationStatusRequest(db *sql.DB) http.HandlerFunc {
	return statusRequest(db, "forward_cancellations")
}

// Handler: RolloverStatusRequest
func RolloverStatusRequest(db *sql.DB) http.HandlerFunc {
	return statusRequest(db, "forward_rollovers")
}
