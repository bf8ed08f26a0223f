package exposures

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ExposureSummary is the dashboard row shape for exposure headers.
type ExposureSummary struct {
	ExposureHeaderID    string  `json:"exposure_header_id"`
	Entity              string  `json:"entity"`
	DocumentID          string  `json:"document_id"`
	ValueDate           string  `json:"value_date"`
	CounterpartyName    string  `json:"counterparty_name"`
	Currency            string  `json:"currency"`
	TotalOriginalAmount float64 `json:"total_original_amount"`
	TotalOpenAmount     float64 `json:"total_open_amount"`
	Status              string  `json:"status"`
	ApprovalStatus      string  `json:"approval_status"`
	ExposureType        string  `json:"exposure_type"`
	PayAmount           float64 `json:"pay_amount"`
	RecAmount           float64 `json:"rec_amount"`
	AgingDays           int     `json:"aging_days"`
	Month               string  `json:"month"`
	Year                int     `json:"year"`
}

func summaryFromRow(headerID, entity, documentID, counterparty, currency, status, approvalStatus, exposureType *string, valueDate *time.Time, totalOrig, totalOpen *float64) ExposureSummary {
	e := ExposureSummary{}
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	e.ExposureHeaderID = deref(headerID)
	e.Entity = deref(entity)
	e.DocumentID = deref(documentID)
	e.CounterpartyName = deref(counterparty)
	e.Currency = strings.ToUpper(deref(currency))
	e.Status = deref(status)
	e.ApprovalStatus = deref(approvalStatus)
	e.ExposureType = deref(exposureType)
	if totalOrig != nil {
		e.TotalOriginalAmount = *totalOrig
	}
	if totalOpen != nil {
		e.TotalOpenAmount = *totalOpen
	}
	if valueDate != nil {
		e.ValueDate = valueDate.UTC().Format("2006-01-02")
		e.Month = valueDate.Format("Jan")
		e.Year = valueDate.Year()
		e.AgingDays = int(time.Since(*valueDate).Hours() / 24)
	}
	if isPayableType(e.ExposureType) {
		e.PayAmount = e.TotalOpenAmount
	} else if isReceivableType(e.ExposureType) {
		e.RecAmount = e.TotalOpenAmount
	}
	return e
}

const dashboardHeaderQuery = `
	SELECT
		exposure_header_id,
		entity,
		document_id,
		value_date,
		counterparty_name,
		currency,
		total_original_amount,
		total_open_amount,
		status,
		approval_status,
		exposure_type
	FROM exposure_headers`

func streamExposureSummaries(pool *pgxpool.Pool, query string, args ...interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := pool.Query(r.Context(), query, args...)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"rows":[`))
		enc := json.NewEncoder(w)
		first := true
		for rows.Next() {
			var headerID, entity, documentID, counterparty, currency, status, approvalStatus, exposureType *string
			var valueDate *time.Time
			var totalOrig, totalOpen *float64
			if err := rows.Scan(&headerID, &entity, &documentID, &valueDate, &counterparty, &currency, &totalOrig, &totalOpen, &status, &approvalStatus, &exposureType); err != nil {
				continue
			}
			if !first {
				w.Write([]byte(`,`))
			}
			first = false
			_ = enc.Encode(summaryFromRow(headerID, entity, documentID, counterparty, currency, status, approvalStatus, exposureType, valueDate, totalOrig, totalOpen))
		}
		w.Write([]byte(`]}`))
	}
}

// Handler: GetAllExposures - streams every exposure header for the
// dashboard.
func GetAllExposures(pool *pgxpool.Pool) http.HandlerFunc {
	return streamExposureSummaries(pool, dashboardHeaderQuery)
}

// Handler: GetExposuresByYear - streams exposure headers whose value date
// falls in the requested year (query param "year").
func GetExposuresByYear(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year := r.URL.Query().Get("year")
		if year == "" {
			respondWithError(w, http.StatusBadRequest, "year query parameter required")
			return
		}
		query := dashboardHeaderQuery + ` WHERE EXTRACT(YEAR FROM value_date) = $1`
		streamExposureSummaries(pool, query, year)(w, r)
	}
}
