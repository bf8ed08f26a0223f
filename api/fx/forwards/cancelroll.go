package forwards

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DeactivateExposureHedgeLinks severs the hedge relationship for the given
// bookings without deleting link history.
func DeactivateExposureHedgeLinks(ex execer, bookingIDs []string) error {
	if len(bookingIDs) == 0 {
		return nil
	}
	_, err := ex.Exec(`UPDATE exposure_hedge_links SET is_active = false WHERE booking_id = ANY($1)`, pq.Array(bookingIDs))
	return err
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// cancelOne books a cancellation against a single booking inside tx and
// reports whether the booking is now fully cancelled.
func cancelOne(tx *sql.Tx, bookingID string, amountCancelled float64, cancellationDate string, cancellationRate, realizedGainLoss float64, reason string) (bool, error) {
	openAmount, ledgerSeq, err := CurrentOpenAmount(tx, bookingID)
	if err != nil {
		return false, fmt.Errorf("booking not found for cancellation: %s", bookingID)
	}
	newOpen, full := ApplyCancellation(decimal.NewFromFloat(openAmount), decimal.NewFromFloat(amountCancelled))
	_, err = tx.Exec(`INSERT INTO forward_booking_ledger (booking_id, ledger_sequence, action_type, action_id, action_date, amount_changed, running_open_amount) VALUES ($1, $2, 'CANCELLATION', $3, $4, $5, $6)`,
		bookingID, ledgerSeq, bookingID, cancellationDate, -amountCancelled, newOpen)
	if err != nil {
		return false, fmt.Errorf("failed to insert cancellation ledger entry: %w", err)
	}
	_, err = tx.Exec(`INSERT INTO forward_cancellations (booking_id, amount_cancelled, cancellation_date, cancellation_rate, realized_gain_loss, cancellation_reason) VALUES ($1, $2, $3, $4, $5, $6)`,
		bookingID, amountCancelled, cancellationDate, cancellationRate, realizedGainLoss, reason)
	if err != nil {
		return false, fmt.Errorf("failed to insert cancellation record: %w", err)
	}
	return full, nil
}

// Handler: CreateForwardCancellations - cancels amounts against one or more
// bookings. Fully cancelled bookings flip to Cancelled and their hedge
// links are deactivated. The whole batch runs in one transaction.
func CreateForwardCancellations(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID             string             `json:"user_id"`
			BookingAmounts     map[string]float64 `json:"booking_amounts"`
			CancellationDate   string             `json:"cancellation_date"`
			CancellationRate   float64            `json:"cancellation_rate"`
			RealizedGainLoss   float64            `json:"realized_gain_loss"`
			CancellationReason string             `json:"cancellation_reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.BookingAmounts) == 0 || req.CancellationDate == "" || req.CancellationRate == 0 {
			respondWithError(w, http.StatusBadRequest, "user_id, booking_amounts (map), cancellation_date, and cancellation_rate are required")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}
		cancellationDate, err := parseFlexibleDate(req.CancellationDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid cancellation_date: "+err.Error())
			return
		}
		dateStr := cancellationDate.Format("2006-01-02")

		tx, err := db.Begin()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer tx.Rollback()

		inserted := 0
		cancelledBookingIDs := []string{}
		for bid, amtCancelled := range req.BookingAmounts {
			full, err := cancelOne(tx, strings.TrimSpace(bid), amtCancelled, dateStr, req.CancellationRate, req.RealizedGainLoss, req.CancellationReason)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			inserted++
			if full {
				cancelledBookingIDs = append(cancelledBookingIDs, strings.TrimSpace(bid))
			}
		}
		if len(cancelledBookingIDs) > 0 {
			if _, err := tx.Exec(`UPDATE forward_bookings SET status = 'Cancelled' WHERE system_transaction_id = ANY($1)`, pq.Array(cancelledBookingIDs)); err != nil {
				respondWithError(w, http.StatusInternalServerError, "Failed to update forward bookings status")
				return
			}
			if err := DeactivateExposureHedgeLinks(tx, cancelledBookingIDs); err != nil {
				respondWithError(w, http.StatusInternalServerError, "Failed to deactivate exposure hedge links")
				return
			}
		}
		if err := tx.Commit(); err != nil {
			respondWithError(w, http.StatusInternalServerError, "commit failed: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":         true,
			"message":         "Forward cancellations processed successfully",
			"inserted":        inserted,
			"fully_cancelled": cancelledBookingIDs,
		})
	}
}

// Handler: RolloverForwardBooking - cancels the given bookings and books a
// replacement forward carrying the original booking's entity and
// counterparty, recording a ROLLOVER ledger entry and a rollover audit row.
func RolloverForwardBooking(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID             string             `json:"user_id"`
			BookingAmounts     map[string]float64 `json:"booking_amounts"`
			CancellationDate   string             `json:"cancellation_date"`
			CancellationRate   float64            `json:"cancellation_rate"`
			RealizedGainLoss   float64            `json:"realized_gain_loss"`
			CancellationReason string             `json:"cancellation_reason"`
			NewForward         struct {
				FXPair          string `json:"fxPair"`
				OrderType       string `json:"orderType"`
				MaturityDate    string `json:"maturityDate"`
				Amount          string `json:"amount"`
				SpotRate        string `json:"spotRate"`
				PremiumDiscount string `json:"premiumDiscount"`
				MarginRate      string `json:"marginRate"`
				NetRate         string `json:"netRate"`
			} `json:"new_forward"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.BookingAmounts) == 0 || req.CancellationDate == "" {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}
		cancellationDate, err := parseFlexibleDate(req.CancellationDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid cancellation_date: "+err.Error())
			return
		}
		maturityDate, err := parseFlexibleDate(req.NewForward.MaturityDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid maturity_date: "+err.Error())
			return
		}
		dateStr := cancellationDate.Format("2006-01-02")

		tx, err := db.Begin()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer tx.Rollback()

		var origBookingID string
		cancelledBookingIDs := []string{}
		for bid, amtCancelled := range req.BookingAmounts {
			origBookingID = strings.TrimSpace(bid)
			full, err := cancelOne(tx, origBookingID, amtCancelled, dateStr, req.CancellationRate, req.RealizedGainLoss, req.CancellationReason)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if full {
				cancelledBookingIDs = append(cancelledBookingIDs, origBookingID)
			}
		}
		if len(cancelledBookingIDs) > 0 {
			if _, err := tx.Exec(`UPDATE forward_bookings SET status = 'Cancelled' WHERE system_transaction_id = ANY($1)`, pq.Array(cancelledBookingIDs)); err != nil {
				respondWithError(w, http.StatusInternalServerError, "Failed to update forward bookings status")
				return
			}
			if err := DeactivateExposureHedgeLinks(tx, cancelledBookingIDs); err != nil {
				respondWithError(w, http.StatusInternalServerError, "Failed to deactivate exposure hedge links")
				return
			}
		}

		var entityLevel0, localCurrency, counterparty string
		var entityLevel1, entityLevel2, entityLevel3 sql.NullString
		err = tx.QueryRow(`SELECT entity_level_0, entity_level_1, entity_level_2, entity_level_3, local_currency, counterparty FROM forward_bookings WHERE system_transaction_id::text = $1`, origBookingID).
			Scan(&entityLevel0, &entityLevel1, &entityLevel2, &entityLevel3, &localCurrency, &counterparty)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch original booking details for rollover: "+err.Error())
			return
		}

		var newBookingID string
		err = tx.QueryRow(`INSERT INTO forward_bookings (
				internal_reference_id, entity_level_0, entity_level_1, entity_level_2, entity_level_3, local_currency, order_type, counterparty, add_date, settlement_date, maturity_date, currency_pair, base_currency, booking_amount, spot_rate, forward_points, bank_margin, total_rate, status, processing_status
			) VALUES (
				$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,'Pending Confirmation','pending'
			) RETURNING system_transaction_id`,
			GenerateFXRef(), entityLevel0, entityLevel1, entityLevel2, entityLevel3, localCurrency,
			req.NewForward.OrderType, counterparty, dateStr, dateStr, maturityDate.Format("2006-01-02"),
			req.NewForward.FXPair, localCurrency, req.NewForward.Amount, req.NewForward.SpotRate,
			req.NewForward.PremiumDiscount, req.NewForward.MarginRate, req.NewForward.NetRate,
		).Scan(&newBookingID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to insert new forward booking for rollover: "+err.Error())
			return
		}

		// opening entry: the full amount is still open, nothing consumed yet
		if _, err := tx.Exec(`INSERT INTO forward_booking_ledger (booking_id, ledger_sequence, action_type, action_id, action_date, amount_changed, running_open_amount) VALUES ($1, 1, 'ROLLOVER', $2, $3, 0, $4)`,
			newBookingID, newBookingID, dateStr, req.NewForward.Amount); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to insert rollover ledger entry")
			return
		}
		if _, err := tx.Exec(`INSERT INTO forward_rollovers (booking_id, amount_rolled_over, rollover_date, original_maturity_date, new_maturity_date, rollover_cost) VALUES ($1, $2, $3, $4, $5, $6)`,
			origBookingID, req.NewForward.Amount, dateStr, dateStr, maturityDate.Format("2006-01-02"), req.RealizedGainLoss); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to insert forward rollover record")
			return
		}

		if err := tx.Commit(); err != nil {
			respondWithError(w, http.StatusInternalServerError, "commit failed: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"message":        "Rollover completed successfully",
			"new_booking_id": newBookingID,
		})
	}
}

// Handler: GetExposuresByBookingIds - exposures linked (actively) to the
// given bookings, within entity scope.
func GetExposuresByBookingIds(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID               string   `json:"user_id"`
			SystemTransactionIDs []string `json:"system_transaction_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.SystemTransactionIDs) == 0 || req.UserID == "" {
			respondWithError(w, http.StatusBadRequest, "user_id and system_transaction_ids (array) required")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusNotFound, "No accessible business units found")
			return
		}
		query := `
			SELECT
				ehl.exposure_header_id,
				eh.document_id,
				eh.exposure_type,
				eh.currency,
				eh.total_open_amount,
				eh.total_original_amount,
				eh.document_date
			FROM exposure_hedge_links ehl
			JOIN exposure_headers eh ON ehl.exposure_header_id = eh.exposure_header_id
			WHERE ehl.booking_id = ANY($1)
				AND (ehl.is_active = true OR ehl.is_active IS NULL)
				AND eh.entity = ANY($2)
		`
		rows, err := db.Query(query, pq.Array(req.SystemTransactionIDs), pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch exposures by booking ids")
			return
		}
		defer rows.Close()
		data := scanRowsToMaps(rows)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
	}
}
