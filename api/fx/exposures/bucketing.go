package exposures

// bucketing.go: maturity bucket storage and its approve/reject workflow.

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

// BucketColumns is the fixed set of maturity bucket columns, in maturity
// order. Labels are the reporting names for each column.
var BucketColumns = []string{"month_1", "month_2", "month_3", "month_4", "month_4_6", "month_6plus"}

var BucketLabels = map[string]string{
	"month_1":     "1 Month",
	"month_2":     "2 Month",
	"month_3":     "3 Month",
	"month_4":     "4 Month",
	"month_4_6":   "4-6 Month",
	"month_6plus": "6 Month +",
}

var bucketingEditableColumns = map[string]bool{
	"month_1":     true,
	"month_2":     true,
	"month_3":     true,
	"month_4":     true,
	"month_4_6":   true,
	"month_6plus": true,
	"comments":    true,
}

var hedgingEditableColumns = map[string]bool{
	"hedge_month_1":     true,
	"hedge_month_2":     true,
	"hedge_month_3":     true,
	"hedge_month_4":     true,
	"hedge_month_4_6":   true,
	"hedge_month_6plus": true,
	"comments":          true,
}

func filterAllowed(fields map[string]interface{}, allowed map[string]bool) (map[string]interface{}, []string) {
	kept := map[string]interface{}{}
	var rejectedKeys []string
	for k, v := range fields {
		if allowed[k] {
			kept[k] = v
		} else {
			rejectedKeys = append(rejectedKeys, k)
		}
	}
	sort.Strings(rejectedKeys)
	return kept, rejectedKeys
}

func ensureRowExists(db *sql.DB, table, headerID string) error {
	var exists int
	err := db.QueryRow("SELECT 1 FROM "+table+" WHERE exposure_header_id = $1", headerID).Scan(&exists)
	if err == sql.ErrNoRows {
		_, err = db.Exec("INSERT INTO "+table+" (exposure_header_id) VALUES ($1)", headerID)
	}
	return err
}

// Handler: UpdateExposureHeadersLineItemsBucketing - edits bucketing and
// hedging-proposal rows for a header. Bucket rows are created lazily on
// first write, and any bucket edit drops status_bucketing back to pending.
func UpdateExposureHeadersLineItemsBucketing(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID           string                 `json:"user_id"`
			ExposureHeaderID string                 `json:"exposure_header_id"`
			BucketingFields  map[string]interface{} `json:"bucketingFields"`
			HedgingFields    map[string]interface{} `json:"hedgingFields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExposureHeaderID == "" {
			respondWithError(w, http.StatusBadRequest, "Invalid request body or exposure_header_id missing")
			return
		}

		bucketFields, badBucket := filterAllowed(req.BucketingFields, bucketingEditableColumns)
		hedgeFields, badHedge := filterAllowed(req.HedgingFields, hedgingEditableColumns)
		if len(badBucket) > 0 || len(badHedge) > 0 {
			respondWithError(w, http.StatusBadRequest,
				"Unknown fields: "+strings.Join(append(badBucket, badHedge...), ", "))
			return
		}
		if len(bucketFields) == 0 && len(hedgeFields) == 0 {
			respondWithError(w, http.StatusBadRequest, "No editable fields supplied")
			return
		}

		updated := map[string]interface{}{}

		if len(bucketFields) > 0 {
			if err := ensureRowExists(db, "exposure_bucketing", req.ExposureHeaderID); err != nil && err != sql.ErrNoRows {
				respondWithError(w, http.StatusInternalServerError, "Failed to create exposure_bucketing row")
				return
			}
			setClause, values := buildSetClause(bucketFields, "status_bucketing = 'Pending'")
			values = append(values, req.ExposureHeaderID)
			query := fmt.Sprintf("UPDATE exposure_bucketing SET %s WHERE exposure_header_id = $%d RETURNING *", setClause, len(values))
			rows, err := db.Query(query, values...)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, "Bucketing update failed: "+err.Error())
				return
			}
			updated["bucketing"] = scanRowsToMaps(rows)
			rows.Close()
		}

		if len(hedgeFields) > 0 {
			if err := ensureRowExists(db, "hedging_proposal", req.ExposureHeaderID); err != nil && err != sql.ErrNoRows {
				respondWithError(w, http.StatusInternalServerError, "Failed to create hedging_proposal row")
				return
			}
			setClause, values := buildSetClause(hedgeFields, "status_hedging = 'Pending'")
			values = append(values, req.ExposureHeaderID)
			query := fmt.Sprintf("UPDATE hedging_proposal SET %s WHERE exposure_header_id = $%d RETURNING *", setClause, len(values))
			rows, err := db.Query(query, values...)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, "Hedging proposal update failed: "+err.Error())
				return
			}
			updated["hedging"] = scanRowsToMaps(rows)
			rows.Close()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"updated": updated,
		})
	}
}

// Handler: GetExposureHeadersLineItemsBucketing - joined view of approved
// headers with their line items and bucketing rows. Bucketing rows are
// backfilled for approved headers that have none yet.
func GetExposureHeadersLineItemsBucketing(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}

		_, _ = db.Exec(`INSERT INTO exposure_bucketing (exposure_header_id)
			SELECT exposure_header_id
			FROM exposure_headers
			WHERE entity = ANY($1)
			  AND (approval_status = 'approved' OR approval_status = 'Approved')
			  AND exposure_header_id NOT IN (
				SELECT exposure_header_id FROM exposure_bucketing
			  )`, pq.Array(buNames))

		rows, err := db.Query(`SELECT h.*, l.*, b.*
			FROM exposure_headers h
			JOIN exposure_line_items l ON h.exposure_header_id = l.exposure_header_id
			LEFT JOIN exposure_bucketing b ON h.exposure_header_id = b.exposure_header_id
			WHERE h.entity = ANY($1)
			  AND (h.approval_status = 'approved' OR h.approval_status = 'Approved')`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch joined exposures")
			return
		}
		defer rows.Close()
		pageData := scanRowsToMaps(rows)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"buAccessible": buNames,
			"pageData":     pageData,
		})
	}
}

func setBucketingStatus(db *sql.DB, w http.ResponseWriter, r *http.Request, status, responseKey string) {
	var req struct {
		UserID            string   `json:"user_id"`
		ExposureHeaderIds []string `json:"exposure_header_ids"`
		Comments          string   `json:"comments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ExposureHeaderIds) == 0 || req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "exposure_header_ids and user_id are required")
		return
	}

	updatedBy := api.RequestedByFromCtx(r.Context(), req.UserID)
	if updatedBy == "" {
		respondWithError(w, http.StatusUnauthorized, "Invalid session")
		return
	}

	rows, err := db.Query(
		`UPDATE exposure_bucketing
         SET status_bucketing = $2, updated_by = $3, comments = $4, updated_at = NOW()
         WHERE exposure_header_id = ANY($1)
         RETURNING *`,
		pq.Array(req.ExposureHeaderIds), status, updatedBy, req.Comments,
	)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()
	updated := scanRowsToMaps(rows)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   true,
		responseKey: updated,
	})
}

func ApproveBucketingStatus(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setBucketingStatus(db, w, r, "Approved", "Approved")
	}
}

func RejectBucketingStatus(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setBucketingStatus(db, w, r, "Rejected", "Rejected")
	}
}
