package exposures

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/Hardik-nyneos/backend/api/fx/forwards"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Handler: HedgeLinksDetails - active hedge links with document and booking
// references, scoped to the caller's entities.
func HedgeLinksDetails(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}
		rows, err := db.Query(`SELECT l.*, h.document_id, f.internal_reference_id
			FROM exposure_hedge_links l
			LEFT JOIN exposure_headers h ON l.exposure_header_id = h.exposure_header_id
			LEFT JOIN forward_bookings f ON l.booking_id = f.system_transaction_id
			WHERE h.entity = ANY($1) AND l.is_active = TRUE`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch hedge links details")
			return
		}
		defer rows.Close()
		data := scanRowsToMaps(rows)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    data,
		})
	}
}

// Handler: ExpFwdLinkingBookings - approved bookings with their already
// linked amounts, candidates for hedge linking.
func ExpFwdLinkingBookings(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}
		bookRows, err := db.Query(`SELECT system_transaction_id, entity_level_0, order_type, currency_pair, maturity_date, booking_amount, counterparty, total_rate, value_local_currency
			FROM forward_bookings
			WHERE LOWER(processing_status) = 'approved' AND entity_level_0 = ANY($1)`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch bookings")
			return
		}
		defer bookRows.Close()
		bookings := scanRowsToMaps(bookRows)

		bookingIds := []string{}
		for _, b := range bookings {
			if id, ok := asString(b["system_transaction_id"]); ok {
				bookingIds = append(bookingIds, id)
			}
		}
		hedgeMap := map[string]float64{}
		if len(bookingIds) > 0 {
			hedgeRows, err := db.Query(`SELECT booking_id, SUM(hedged_amount) AS linked_amount FROM exposure_hedge_links WHERE booking_id = ANY($1) GROUP BY booking_id`, pq.Array(bookingIds))
			if err == nil {
				for hedgeRows.Next() {
					var bookingID string
					var linkedAmount float64
					if err := hedgeRows.Scan(&bookingID, &linkedAmount); err == nil {
						hedgeMap[bookingID] = linkedAmount
					}
				}
				hedgeRows.Close()
			}
		}

		response := []map[string]interface{}{}
		for _, b := range bookings {
			bookingID, _ := asString(b["system_transaction_id"])
			entityStr, _ := asString(b["entity_level_0"])
			response = append(response, map[string]interface{}{
				"bu":                    entityStr,
				"system_transaction_id": bookingID,
				"type":                  b["order_type"],
				"currency_pair":         b["currency_pair"],
				"maturity_date":         b["maturity_date"],
				"amount":                strconv.FormatFloat(asFloat(b["booking_amount"]), 'f', 2, 64),
				"linked_amount":         strconv.FormatFloat(hedgeMap[bookingID], 'f', 2, 64),
				"rate":                  strconv.FormatFloat(asFloat(b["total_rate"]), 'f', 6, 64),
				"lcy_amount":            strconv.FormatFloat(asFloat(b["value_local_currency"]), 'f', 2, 64),
				"bank":                  b["counterparty"],
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    response,
		})
	}
}

// Handler: ExpFwdLinking - approved exposures that still have unhedged open
// amount, candidates for hedge linking.
func ExpFwdLinking(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}
		headRows, err := db.Query(`SELECT exposure_header_id, entity, exposure_type, currency, value_date, total_open_amount, counterparty_name
			FROM exposure_headers
			WHERE LOWER(approval_status) = 'approved' AND entity = ANY($1)`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch exposure headers")
			return
		}
		defer headRows.Close()
		headers := scanRowsToMaps(headRows)

		headerIds := []string{}
		for _, h := range headers {
			if id, ok := asString(h["exposure_header_id"]); ok {
				headerIds = append(headerIds, id)
			}
		}
		hedgeMap := map[string]float64{}
		if len(headerIds) > 0 {
			hedgeRows, err := db.Query(`SELECT exposure_header_id, SUM(hedged_amount) AS hedge_amount FROM exposure_hedge_links WHERE exposure_header_id = ANY($1) GROUP BY exposure_header_id`, pq.Array(headerIds))
			if err == nil {
				for hedgeRows.Next() {
					var headerID string
					var hedgeAmount float64
					if err := hedgeRows.Scan(&headerID, &hedgeAmount); err == nil {
						hedgeMap[headerID] = hedgeAmount
					}
				}
				hedgeRows.Close()
			}
		}

		response := []map[string]interface{}{}
		for _, h := range headers {
			headerID, _ := asString(h["exposure_header_id"])
			hedgeAmount := hedgeMap[headerID]
			totalOpen := asFloat(h["total_open_amount"])
			entityStr, _ := asString(h["entity"])
			if hedgeAmount < totalOpen {
				response = append(response, map[string]interface{}{
					"bu":                 entityStr,
					"exposure_header_id": headerID,
					"type":               h["exposure_type"],
					"currency":           h["currency"],
					"maturity_date":      h["value_date"],
					"amount":             totalOpen,
					"hedge_amount":       hedgeAmount,
					"bank":               h["counterparty_name"],
				})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    response,
		})
	}
}

// Handler: LinkExposureHedge - upserts the hedge link and appends the
// UTILIZATION ledger row in one transaction. The new running open amount is
// derived from the latest ledger row and includes the hedged amount being
// applied; amount_changed is stored negative, like cancellations, since the
// entry reduces the open amount.
func LinkExposureHedge(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID           string  `json:"user_id"`
			ExposureHeaderID string  `json:"exposure_header_id"`
			BookingID        string  `json:"booking_id"`
			HedgedAmount     float64 `json:"hedged_amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.ExposureHeaderID == "" || req.BookingID == "" || req.HedgedAmount == 0 {
			respondWithError(w, http.StatusBadRequest, "user_id, exposure_header_id, booking_id, and hedged_amount are required")
			return
		}

		tx, err := db.Begin()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer tx.Rollback()

		upsertQuery := `
			INSERT INTO exposure_hedge_links (exposure_header_id, booking_id, hedged_amount, is_active)
			VALUES ($1, $2, $3, true)
			ON CONFLICT (exposure_header_id, booking_id)
			DO UPDATE SET hedged_amount = EXCLUDED.hedged_amount, is_active = true
			RETURNING exposure_header_id, booking_id, hedged_amount, is_active`
		var link struct {
			ExposureHeaderID string
			BookingID        string
			HedgedAmount     float64
			IsActive         bool
		}
		err = tx.QueryRow(upsertQuery, req.ExposureHeaderID, req.BookingID, req.HedgedAmount).Scan(
			&link.ExposureHeaderID,
			&link.BookingID,
			&link.HedgedAmount,
			&link.IsActive,
		)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to upsert exposure hedge link")
			return
		}

		openAmount, ledgerSeq, err := forwards.CurrentOpenAmount(tx, req.BookingID)
		if err != nil {
			respondWithError(w, http.StatusNotFound, "Forward booking not found")
			return
		}
		newOpenAmount := forwards.ApplyUtilization(
			decimal.NewFromFloat(openAmount),
			decimal.NewFromFloat(req.HedgedAmount),
		)

		ledgerQuery := `INSERT INTO forward_booking_ledger (booking_id, action_type, action_id, action_date, amount_changed, running_open_amount, user_id, ledger_sequence)
			VALUES ($1, 'UTILIZATION', $2, CURRENT_DATE, $3, $4, $5, $6)`
		if _, err := tx.Exec(ledgerQuery, req.BookingID, req.ExposureHeaderID, -req.HedgedAmount, newOpenAmount, req.UserID, ledgerSeq); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to append booking ledger entry")
			return
		}

		if err := tx.Commit(); err != nil {
			respondWithError(w, http.StatusInternalServerError, "commit failed: "+err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "link": map[string]interface{}{
			"exposure_header_id": link.ExposureHeaderID,
			"booking_id":         link.BookingID,
			"hedged_amount":      link.HedgedAmount,
			"is_active":          link.IsActive,
		}})
	}
}

func asString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []uint8:
		return string(t), true
	}
	return "", false
}

func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case []uint8:
		f, _ := strconv.ParseFloat(string(t), 64)
		return f
	}
	return 0
}
