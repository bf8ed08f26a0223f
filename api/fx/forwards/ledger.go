package forwards

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// FullCancellationEpsilon is the tolerance under which a remaining open
// amount is treated as zero and the booking is fully cancelled.
const FullCancellationEpsilon = 1e-4

// ApplyUtilization reduces an open amount by a newly linked hedge amount,
// clamping at zero. The just-applied amount is always included, so the
// latest ledger row states the booking's true outstanding amount.
func ApplyUtilization(openAmount, hedgedAmount decimal.Decimal) decimal.Decimal {
	remaining := openAmount.Abs().Sub(hedgedAmount.Abs())
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ApplyCancellation reduces an open amount by the cancelled amount and
// reports whether the booking is now fully cancelled. Residuals within
// FullCancellationEpsilon collapse to zero.
func ApplyCancellation(openAmount, amountCancelled decimal.Decimal) (decimal.Decimal, bool) {
	remaining := openAmount.Abs().Sub(amountCancelled.Abs())
	if remaining.LessThanOrEqual(decimal.NewFromFloat(FullCancellationEpsilon)) {
		return decimal.Zero, true
	}
	return remaining, false
}

// CurrentOpenAmount resolves a booking's authoritative outstanding amount:
// the running_open_amount at the highest ledger_sequence, falling back to
// booking_amount when no ledger entry exists yet. Returns the next
// ledger_sequence to use. Every writer of balance-affecting ledger rows
// starts from this value and stores amount_changed signed, negative when the
// entry reduces the open amount.
func CurrentOpenAmount(q QueryRower, bookingID string) (float64, int, error) {
	var openAmount float64
	var ledgerSeq int
	err := q.QueryRow(`SELECT running_open_amount, ledger_sequence FROM forward_booking_ledger WHERE booking_id = $1 ORDER BY ledger_sequence DESC LIMIT 1`, bookingID).Scan(&openAmount, &ledgerSeq)
	if err == sql.ErrNoRows {
		if err := q.QueryRow(`SELECT booking_amount FROM forward_bookings WHERE system_transaction_id = $1`, bookingID).Scan(&openAmount); err != nil {
			return 0, 0, err
		}
		return openAmount, 1, nil
	}
	if err != nil {
		return 0, 0, err
	}
	return openAmount, ledgerSeq + 1, nil
}

// QueryRower is satisfied by *sql.DB and *sql.Tx.
type QueryRower interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}
