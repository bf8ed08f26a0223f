package exposures

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Handler: GetHedgingProposalsAggregated - SQL-side aggregation of approved
// bucketing rows into per (entity, currency, type) proposals.
func GetHedgingProposalsAggregated(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}

		// Ensure all exposure_header_id are present in hedging_proposal
		_, _ = db.Exec(`INSERT INTO hedging_proposal (exposure_header_id)
			SELECT exposure_header_id
			FROM exposure_headers
			WHERE entity = ANY($1)
			  AND exposure_header_id NOT IN (
				SELECT exposure_header_id FROM hedging_proposal
			  )`, pq.Array(buNames))

		query := `
			SELECT
				h.entity AS business_unit,
				h.currency,
				h.exposure_type,
				ARRAY_AGG(h.exposure_header_id) AS contributing_header_ids,
				SUM(COALESCE(b.month_1, 0)) AS hedge_month1,
				SUM(COALESCE(b.month_2, 0)) AS hedge_month2,
				SUM(COALESCE(b.month_3, 0)) AS hedge_month3,
				SUM(COALESCE(b.month_4, 0)) AS hedge_month4,
				SUM(COALESCE(b.month_4_6, 0)) AS hedge_month4to6,
				SUM(COALESCE(b.month_6plus, 0)) AS hedge_month6plus,
				MAX(hp.comments) AS comments,
				MAX(hp.status_hedging) AS status
			FROM exposure_headers h
			JOIN exposure_bucketing b ON h.exposure_header_id = b.exposure_header_id AND LOWER(b.status_bucketing) = 'approved'
			JOIN exposure_line_items l ON h.exposure_header_id = l.exposure_header_id
			LEFT JOIN hedging_proposal hp ON h.exposure_header_id = hp.exposure_header_id
			WHERE h.entity = ANY($1)
			GROUP BY h.entity, h.currency, h.exposure_type
		`
		rows, err := db.Query(query, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to aggregate proposals")
			return
		}
		defer rows.Close()
		proposals := scanRowsToMaps(rows)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"proposals": proposals,
		})
	}
}

// Handler: GetMaturityBucketSummary - reporting view that aggregates
// approved bucketing rows into maturity buckets split by payables and
// receivables. Recomputed per request, no persisted cache.
func GetMaturityBucketSummary(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}

		rows, err := db.Query(`
			SELECT h.entity, COALESCE(h.currency, ''), COALESCE(h.exposure_type, ''),
			       COALESCE(b.month_1, 0), COALESCE(b.month_2, 0), COALESCE(b.month_3, 0),
			       COALESCE(b.month_4, 0), COALESCE(b.month_4_6, 0), COALESCE(b.month_6plus, 0)
			FROM exposure_headers h
			JOIN exposure_bucketing b ON h.exposure_header_id = b.exposure_header_id
			WHERE h.entity = ANY($1)`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch bucketing rows")
			return
		}
		defer rows.Close()

		input := []BucketedExposure{}
		for rows.Next() {
			var bu, currency, expType string
			amounts := make([]decimal.Decimal, len(BucketColumns))
			dest := []interface{}{&bu, &currency, &expType}
			for i := range amounts {
				dest = append(dest, &amounts[i])
			}
			if err := rows.Scan(dest...); err != nil {
				continue
			}
			buckets := map[string]decimal.Decimal{}
			for i, col := range BucketColumns {
				buckets[col] = amounts[i]
			}
			input = append(input, BucketedExposure{
				BusinessUnit: bu,
				Currency:     currency,
				ExposureType: expType,
				Buckets:      buckets,
			})
		}

		summary := AggregateMaturityBuckets(input)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"rows":    summary,
		})
	}
}
