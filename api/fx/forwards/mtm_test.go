package forwards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func matchedTerms() bookingTerms {
	return bookingTerms{
		BookingID:    "b-1",
		OrderType:    "Buy",
		OpenAmount:   100000,
		ContractRate: 83.25,
		CurrencyPair: "USD/INR",
	}
}

func matchedRow() mtmRow {
	return mtmRow{
		InternalReferenceID: "FX-REF-100001",
		CurrencyPair:        "usd/inr",
		BuySell:             "BUY",
		NotionalAmount:      100000,
		ContractRate:        83.25,
		MTMRate:             83.10,
	}
}

func TestReconcileMTMRowMatches(t *testing.T) {
	assert.Empty(t, ReconcileMTMRow(matchedRow(), matchedTerms()))
}

func TestReconcileMTMRowNamesEveryMismatch(t *testing.T) {
	row := matchedRow()
	row.BuySell = "Sell"
	row.NotionalAmount = 90000
	row.ContractRate = 84.00
	row.CurrencyPair = "EUR/INR"
	mismatches := ReconcileMTMRow(row, matchedTerms())
	assert.Equal(t, []string{
		"buy_sell/order_type",
		"notional_amount/open_amount",
		"contract_rate/total_rate",
		"currency_pair",
	}, mismatches)
}

func TestReconcileMTMRowNotionalAgainstOpenAmount(t *testing.T) {
	// The row must match the outstanding amount, not the original booking.
	terms := matchedTerms()
	terms.OpenAmount = 60000
	mismatches := ReconcileMTMRow(matchedRow(), terms)
	assert.Equal(t, []string{"notional_amount/open_amount"}, mismatches)
}

func TestMTMValue(t *testing.T) {
	assert.InDelta(t, -15000.0, MTMValue(83.10, 83.25, 100000), 1e-9)
	assert.InDelta(t, 7500.0, MTMValue(84.00, 83.25, 10000), 1e-9)
	assert.InDelta(t, 0.0, MTMValue(83.25, 83.25, 100000), 1e-9)
}
