package exposures

// aggregation.go: maturity-bucket aggregation for the hedging dashboard.

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// BucketedExposure is one joined header+bucketing row feeding aggregation.
type BucketedExposure struct {
	BusinessUnit string
	Currency     string
	ExposureType string
	Buckets      map[string]decimal.Decimal // keyed by BucketColumns entries
}

// MaturityBucketRow is one aggregated output row.
type MaturityBucketRow struct {
	Bucket       string          `json:"maturity_bucket"`
	BusinessUnit string          `json:"bu"`
	Currency     string          `json:"currency"`
	Payables     decimal.Decimal `json:"payables"`
	Receivables  decimal.Decimal `json:"receivables"`
}

func isPayableType(exposureType string) bool {
	switch strings.ToLower(strings.TrimSpace(exposureType)) {
	case "po", "creditors":
		return true
	}
	return false
}

func isReceivableType(exposureType string) bool {
	switch strings.ToLower(strings.TrimSpace(exposureType)) {
	case "so", "lc", "debitors":
		return true
	}
	return false
}

// AggregateMaturityBuckets groups bucket amounts by (bucket, business unit,
// currency), splitting payables from receivables by exposure type. Bucket
// magnitudes are sign-agnostic; zero amounts and unclassified exposure types
// contribute nothing. Pure function of its input, so calling it twice on the
// same rows yields identical output.
func AggregateMaturityBuckets(rows []BucketedExposure) []MaturityBucketRow {
	type key struct {
		bucket   string
		bu       string
		currency string
	}
	type sums struct {
		payables    decimal.Decimal
		receivables decimal.Decimal
	}

	acc := map[key]*sums{}
	for _, row := range rows {
		payable := isPayableType(row.ExposureType)
		receivable := isReceivableType(row.ExposureType)
		if !payable && !receivable {
			continue
		}
		currency := strings.ToUpper(strings.TrimSpace(row.Currency))
		if currency == "" {
			currency = "Unknown"
		}
		for _, col := range BucketColumns {
			amt, ok := row.Buckets[col]
			if !ok || amt.IsZero() {
				continue
			}
			amt = amt.Abs()
			k := key{bucket: BucketLabels[col], bu: row.BusinessUnit, currency: currency}
			s, ok := acc[k]
			if !ok {
				s = &sums{}
				acc[k] = s
			}
			if payable {
				s.payables = s.payables.Add(amt)
			} else {
				s.receivables = s.receivables.Add(amt)
			}
		}
	}

	out := make([]MaturityBucketRow, 0, len(acc))
	for k, s := range acc {
		out = append(out, MaturityBucketRow{
			Bucket:       k.bucket,
			BusinessUnit: k.bu,
			Currency:     k.currency,
			Payables:     s.payables,
			Receivables:  s.receivables,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bucket != out[j].Bucket {
			return out[i].Bucket < out[j].Bucket
		}
		if out[i].BusinessUnit != out[j].BusinessUnit {
			return out[i].BusinessUnit < out[j].BusinessUnit
		}
		return out[i].Currency < out[j].Currency
	})
	return out
}
