package forwards

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/Hardik-nyneos/backend/internal/fileparser"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// bookingTerms are the contracted fields an MTM row must reconcile against.
type bookingTerms struct {
	BookingID    string
	OrderType    string
	OpenAmount   float64
	ContractRate float64
	CurrencyPair string
}

// mtmRow is one parsed upload row.
type mtmRow struct {
	InternalReferenceID string
	Entity              string
	DealDate            string
	MaturityDate        string
	CurrencyPair        string
	BuySell             string
	NotionalAmount      float64
	ContractRate        float64
	MTMRate             float64
	DaysToMaturityRaw   string
	Status              string
}

// ReconcileMTMRow checks an upload row against booking terms and returns
// the mismatched field names, empty when the row reconciles.
func ReconcileMTMRow(row mtmRow, terms bookingTerms) []string {
	mismatches := []string{}
	if !strings.EqualFold(row.BuySell, terms.OrderType) {
		mismatches = append(mismatches, "buy_sell/order_type")
	}
	if row.NotionalAmount != terms.OpenAmount {
		mismatches = append(mismatches, "notional_amount/open_amount")
	}
	if row.ContractRate != terms.ContractRate {
		mismatches = append(mismatches, "contract_rate/total_rate")
	}
	if !strings.EqualFold(row.CurrencyPair, terms.CurrencyPair) {
		mismatches = append(mismatches, "currency_pair")
	}
	return mismatches
}

// MTMValue is the mark-to-market value of a position: the rate difference
// applied across the outstanding notional.
func MTMValue(mtmRate, contractRate, notionalAmount float64) float64 {
	return (mtmRate - contractRate) * notionalAmount
}

// Handler: UploadMTMFiles - validates each uploaded file's rows against
// booking terms and inserts them. Each file is all-or-nothing; a
// reconciliation failure aborts that file only.
func UploadMTMFiles(db *sql.DB) http.HandlerFunc {
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
			results = append(results, processMTMFile(db, fileHeader, buNames))
		}
		allOk := api.IsBulkSuccess(results)
		errMsg := ""
		if !allOk {
			errMsg = "one or more files failed"
		}
		api.RespondWithPayload(w, allOk, errMsg, results)
	}
}

func processMTMFile(db *sql.DB, fileHeader *multipart.FileHeader, buNames []string) map[string]interface{} {
	fail := func(msg string) map[string]interface{} {
		return map[string]interface{}{"filename": fileHeader.Filename, "success": false, "error": msg}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fail("Failed to open file")
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return fail("Failed to read file")
	}
	rawRows, err := fileparser.ParseRows(data, fileparser.Ext(fileHeader.Filename))
	if err != nil || len(rawRows) < 2 {
		return fail("No data in file")
	}
	idx := fileparser.HeaderIndex(rawRows[0])
	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	parsed := make([]mtmRow, 0, len(rawRows)-1)
	refIds := []string{}
	for _, raw := range rawRows[1:] {
		row := mtmRow{
			InternalReferenceID: get(raw, "internal_reference_id"),
			Entity:              get(raw, "entity"),
			DealDate:            get(raw, "deal_date"),
			MaturityDate:        get(raw, "maturity_date"),
			CurrencyPair:        get(raw, "currency_pair"),
			BuySell:             get(raw, "buy_sell"),
			NotionalAmount:      num(get(raw, "notional_amount")),
			ContractRate:        num(get(raw, "contract_rate")),
			MTMRate:             num(get(raw, "mtm_rate")),
			DaysToMaturityRaw:   get(raw, "days_to_maturity"),
			Status:              get(raw, "status"),
		}
		parsed = append(parsed, row)
		if row.InternalReferenceID != "" {
			refIds = append(refIds, row.InternalReferenceID)
		}
	}
	if len(parsed) == 0 {
		return fail("No data to upload")
	}

	termsByRef := map[string]bookingTerms{}
	bookingIdList := []string{}
	if len(refIds) > 0 {
		rows, err := db.Query(`SELECT system_transaction_id, internal_reference_id, order_type, booking_amount, total_rate, currency_pair FROM forward_bookings WHERE internal_reference_id = ANY($1)`, pq.Array(refIds))
		if err != nil {
			return fail("Failed to resolve bookings: " + err.Error())
		}
		for rows.Next() {
			var terms bookingTerms
			var internalRef string
			if err := rows.Scan(&terms.BookingID, &internalRef, &terms.OrderType, &terms.OpenAmount, &terms.ContractRate, &terms.CurrencyPair); err == nil {
				termsByRef[internalRef] = terms
				bookingIdList = append(bookingIdList, terms.BookingID)
			}
		}
		rows.Close()
	}
	// latest ledger balance overrides booking_amount
	if len(bookingIdList) > 0 {
		rows, err := db.Query(`SELECT DISTINCT ON (booking_id) booking_id, running_open_amount FROM forward_booking_ledger WHERE booking_id = ANY($1) ORDER BY booking_id, ledger_sequence DESC`, pq.Array(bookingIdList))
		if err == nil {
			openByBooking := map[string]float64{}
			for rows.Next() {
				var bookingID string
				var openAmount float64
				if err := rows.Scan(&bookingID, &openAmount); err == nil {
					openByBooking[bookingID] = openAmount
				}
			}
			rows.Close()
			for ref, terms := range termsByRef {
				if open, ok := openByBooking[terms.BookingID]; ok {
					terms.OpenAmount = open
					termsByRef[ref] = terms
				}
			}
		}
	}

	type insertRow struct {
		args []interface{}
	}
	validRows := []insertRow{}
	for i, row := range parsed {
		if !containsString(buNames, row.Entity) {
			return fail(fmt.Sprintf("business unit not allowed: %s (row %d)", row.Entity, i+1))
		}
		terms, ok := termsByRef[row.InternalReferenceID]
		if !ok {
			return fail(fmt.Sprintf("booking not found for internal_reference_id: %s (row %d)", row.InternalReferenceID, i+1))
		}
		if mismatches := ReconcileMTMRow(row, terms); len(mismatches) > 0 {
			return fail(fmt.Sprintf("reconciliation failed for internal_reference_id: %s (row %d). Mismatched fields: %s", row.InternalReferenceID, i+1, strings.Join(mismatches, ", ")))
		}
		status := row.Status
		if status == "" {
			status = "pending"
		}
		validRows = append(validRows, insertRow{args: []interface{}{
			uuid.New().String(),
			terms.BookingID,
			row.DealDate,
			row.MaturityDate,
			row.CurrencyPair,
			row.BuySell,
			row.NotionalAmount,
			row.ContractRate,
			row.MTMRate,
			MTMValue(row.MTMRate, row.ContractRate, row.NotionalAmount),
			daysToMaturity(row.DealDate, row.MaturityDate, row.DaysToMaturityRaw),
			status,
			row.InternalReferenceID,
			row.Entity,
		}})
	}

	tx, err := db.Begin()
	if err != nil {
		return fail("Failed to start DB transaction")
	}
	valueStrings := []string{}
	valueArgs := []interface{}{}
	for i, row := range validRows {
		ph := make([]string, 14)
		for j := range ph {
			ph[j] = "$" + strconv.Itoa(i*14+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs, row.args...)
	}
	insertQuery := "INSERT INTO forward_mtm (mtm_id, booking_id, deal_date, maturity_date, currency_pair, buy_sell, notional_amount, contract_rate, mtm_rate, mtm_value, days_to_maturity, status, internal_reference_id, entity) VALUES " + strings.Join(valueStrings, ",")
	if _, err := tx.Exec(insertQuery, valueArgs...); err != nil {
		tx.Rollback()
		return fail("Failed to insert data: " + err.Error())
	}
	if err := tx.Commit(); err != nil {
		return fail("Failed to commit transaction: " + err.Error())
	}
	return map[string]interface{}{
		"filename": fileHeader.Filename,
		"success":  true,
		"inserted": len(validRows),
	}
}

// Handler: GetMTMData - MTM rows for the caller's entities.
func GetMTMData(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusForbidden, "No accessible business units found")
			return
		}
		rows, err := db.Query(`SELECT * FROM forward_mtm WHERE entity = ANY($1)`, pq.Array(buNames))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to fetch MTM data")
			return
		}
		defer rows.Close()
		data := scanRowsToMaps(rows)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    data,
		})
	}
}
