package exposures

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/lib/pq"
)

// Handler: DeleteExposureHeaders - marks headers for delete approval
func DeleteExposureHeaders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID            string   `json:"user_id"`
			ExposureHeaderIds []string `json:"exposureHeaderIds"`
			RequestedBy       string   `json:"requested_by"`
			DeleteComment     string   `json:"delete_comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ExposureHeaderIds) == 0 || req.RequestedBy == "" {
			respondWithError(w, http.StatusBadRequest, "exposureHeaderIds and requested_by are required")
			return
		}
		res, err := db.Exec(
			`UPDATE exposure_headers SET approval_status = 'Delete-Approval', delete_comment = $1 WHERE exposure_header_id = ANY($2::uuid[])`,
			req.DeleteComment,
			pq.Array(req.ExposureHeaderIds),
		)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		count, _ := res.RowsAffected()
		if count == 0 {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "No matching exposure_headers found",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": fmt.Sprintf("%d exposure_header(s) marked for delete approval", count),
		})
	}
}

// Handler: RejectMultipleExposureHeaders - rejects multiple headers
func RejectMultipleExposureHeaders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID            string   `json:"user_id"`
			ExposureHeaderIds []string `json:"exposureHeaderIds"`
			RejectedBy        string   `json:"rejected_by"`
			RejectionComment  string   `json:"rejection_comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ExposureHeaderIds) == 0 || req.RejectedBy == "" {
			respondWithError(w, http.StatusBadRequest, "exposureHeaderIds and rejected_by are required")
			return
		}
		rows, err := db.Query(
			`UPDATE exposure_headers SET approval_status = 'Rejected', rejected_by = $1, rejection_comment = $2, rejected_at = NOW() WHERE exposure_header_id = ANY($3::uuid[]) RETURNING *`,
			req.RejectedBy,
			req.RejectionComment,
			pq.Array(req.ExposureHeaderIds),
		)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()
		rejected := scanRowsToMaps(rows)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  true,
			"rejected": rejected,
		})
	}
}

// resolveParentHeaderID looks up the exposure header owning a document id,
// locking it for the rest of the transaction. More than one header sharing
// the document id is a data fault that must abort the whole batch, since an
// arbitrary pick would adjust the wrong parent's open amount.
func resolveParentHeaderID(tx *sql.Tx, parentDocID string) (string, error) {
	rows, err := tx.Query(
		`SELECT exposure_header_id FROM exposure_headers WHERE document_id = $1 FOR UPDATE`,
		parentDocID,
	)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	switch len(ids) {
	case 0:
		return "", nil
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("ambiguous parent: %d headers share document_id %q", len(ids), parentDocID)
	}
}

func headerAmount(h map[string]interface{}, preferOpen bool) float64 {
	if preferOpen {
		if v, ok := h["total_open_amount"].(float64); ok && v != 0 {
			return math.Abs(v)
		}
	}
	if v, ok := h["total_original_amount"].(float64); ok {
		return math.Abs(v)
	}
	return 0
}

func headerParentLink(h map[string]interface{}) ParentLink {
	typeStr, _ := h["exposure_type"].(string)
	details, _ := h["additional_header_details"].(map[string]interface{})
	return ResolveParentLink(typeStr, details)
}

// Handler: ApproveMultipleExposureHeaders - approves multiple headers and
// runs the rollover/deletion workflow in a single transaction.
func ApproveMultipleExposureHeaders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID            string   `json:"user_id"`
			ExposureHeaderIds []string `json:"exposureHeaderIds"`
			ApprovedBy        string   `json:"approved_by"`
			ApprovalComment   string   `json:"approval_comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ExposureHeaderIds) == 0 || req.ApprovedBy == "" {
			respondWithError(w, http.StatusBadRequest, "exposureHeaderIds and approved_by are required")
			return
		}
		tx, err := db.Begin()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer tx.Rollback()

		rows, err := tx.Query(`
			SELECT exposure_header_id, approval_status
			FROM exposure_headers WHERE exposure_header_id = ANY($1::uuid[]) FOR UPDATE`,
			pq.Array(req.ExposureHeaderIds))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		statusByHeader := map[string]string{}
		order := []string{}
		for rows.Next() {
			var id, status string
			if err := rows.Scan(&id, &status); err == nil {
				statusByHeader[id] = status
				order = append(order, id)
			}
		}
		rows.Close()

		plan := PlanApproval(statusByHeader, order)

		deleted := []map[string]interface{}{}
		approved := []map[string]interface{}{}
		rolled := []map[string]interface{}{}

		// Deletion branch: drop rollover logs first so the header delete does
		// not trip foreign keys, then compensate any outstanding rollover on
		// the parent document.
		if len(plan.ToDelete) > 0 {
			if _, err := tx.Exec(
				`DELETE FROM exposure_rollover_log WHERE child_header_id = ANY($1::uuid[]) OR parent_header_id = ANY($1::uuid[])`,
				pq.Array(plan.ToDelete)); err != nil {
				respondWithError(w, http.StatusInternalServerError, "exposure_rollover_log: "+err.Error())
				return
			}
			if _, err := tx.Exec(
				`DELETE FROM exposure_bucketing WHERE exposure_header_id = ANY($1::uuid[])`,
				pq.Array(plan.ToDelete)); err != nil {
				respondWithError(w, http.StatusInternalServerError, "exposure_bucketing: "+err.Error())
				return
			}
			if _, err := tx.Exec(
				`DELETE FROM hedging_proposal WHERE exposure_header_id = ANY($1::uuid[])`,
				pq.Array(plan.ToDelete)); err != nil {
				respondWithError(w, http.StatusInternalServerError, "hedging_proposal: "+err.Error())
				return
			}

			delRows, err := tx.Query(
				`DELETE FROM exposure_headers WHERE exposure_header_id = ANY($1::uuid[]) RETURNING *`,
				pq.Array(plan.ToDelete))
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, "exposure_headers: "+err.Error())
				return
			}
			deleted = scanRowsToMaps(delRows)
			delRows.Close()

			if _, err := tx.Exec(
				`DELETE FROM exposure_line_items WHERE exposure_header_id = ANY($1::uuid[])`,
				pq.Array(plan.ToDelete)); err != nil {
				respondWithError(w, http.StatusInternalServerError, "exposure_line_items: "+err.Error())
				return
			}

			for _, h := range deleted {
				link := headerParentLink(h)
				if !link.HasParent() {
					continue
				}
				parentID, err := resolveParentHeaderID(tx, link.ParentDocumentID)
				if err != nil {
					respondWithError(w, http.StatusInternalServerError, err.Error())
					return
				}
				if parentID == "" {
					continue
				}
				amt := headerAmount(h, true)
				if _, err := tx.Exec(
					`UPDATE exposure_headers SET total_open_amount = total_open_amount + $1, status = 'Open' WHERE exposure_header_id = $2`,
					amt, parentID); err != nil {
					respondWithError(w, http.StatusInternalServerError, err.Error())
					return
				}
			}
		}

		// Approval branch: bulk status flip, then per-header rollover into the
		// parent document for the rollover-eligible types.
		if len(plan.ToApprove) > 0 {
			appRows, err := tx.Query(
				`UPDATE exposure_headers SET approval_status = 'Approved', approved_by = $1, approval_comment = $2, approved_at = NOW() WHERE exposure_header_id = ANY($3::uuid[]) RETURNING *`,
				req.ApprovedBy, req.ApprovalComment, pq.Array(plan.ToApprove))
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			approved = scanRowsToMaps(appRows)
			appRows.Close()

			for _, h := range approved {
				link := headerParentLink(h)
				if !link.HasParent() {
					continue
				}
				parentID, err := resolveParentHeaderID(tx, link.ParentDocumentID)
				if err != nil {
					respondWithError(w, http.StatusInternalServerError, err.Error())
					return
				}
				if parentID == "" {
					continue
				}
				amt := headerAmount(h, false)
				if _, err := tx.Exec(
					`UPDATE exposure_headers SET total_open_amount = total_open_amount - $1, status = 'Rolled' WHERE exposure_header_id = $2`,
					amt, parentID); err != nil {
					respondWithError(w, http.StatusInternalServerError, err.Error())
					return
				}
				if _, err := tx.Exec(
					`UPDATE exposure_headers SET status = 'Rolled' WHERE exposure_header_id = $1`,
					h["exposure_header_id"]); err != nil {
					respondWithError(w, http.StatusInternalServerError, err.Error())
					return
				}
				if _, err := tx.Exec(
					`INSERT INTO exposure_rollover_log (parent_header_id, child_header_id, rollover_amount, rollover_date, created_at) VALUES ($1, $2, $3, CURRENT_DATE, NOW())`,
					parentID, h["exposure_header_id"], amt); err != nil {
					respondWithError(w, http.StatusInternalServerError, err.Error())
					return
				}
				rolled = append(rolled, h)
			}
		}

		if err := tx.Commit(); err != nil {
			respondWithError(w, http.StatusInternalServerError, "commit failed: "+err.Error())
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  true,
			"deleted":  deleted,
			"approved": approved,
			"rolled":   rolled,
			"skipped":  plan.Skipped,
		})
	}
}
