package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLedgerEntriesCleanLedger(t *testing.T) {
	entries := []LedgerEntry{
		{LedgerSequence: 1, ActionType: "ROLLOVER", AmountChanged: 0, RunningOpenAmount: 10000},
		{LedgerSequence: 2, ActionType: "UTILIZATION", AmountChanged: -3000, RunningOpenAmount: 7000},
		{LedgerSequence: 3, ActionType: "CANCELLATION", AmountChanged: -7000, RunningOpenAmount: 0},
	}
	assert.Empty(t, CheckLedgerEntries("b-1", entries))
}

func TestCheckLedgerEntriesMultipleUtilizationsClean(t *testing.T) {
	// A booking hedged twice then partially cancelled, as the linking and
	// cancellation handlers write it: signed deltas, first row as baseline.
	entries := []LedgerEntry{
		{LedgerSequence: 1, ActionType: "UTILIZATION", AmountChanged: -3000, RunningOpenAmount: 7000},
		{LedgerSequence: 2, ActionType: "UTILIZATION", AmountChanged: -2000, RunningOpenAmount: 5000},
		{LedgerSequence: 3, ActionType: "CANCELLATION", AmountChanged: -2000, RunningOpenAmount: 3000},
		{LedgerSequence: 4, ActionType: "UTILIZATION", AmountChanged: -1000, RunningOpenAmount: 2000},
	}
	assert.Empty(t, CheckLedgerEntries("b-1", entries))
}

func TestCheckLedgerEntriesSequenceGapAllowed(t *testing.T) {
	// Gaps are fine, only regressions are findings.
	entries := []LedgerEntry{
		{LedgerSequence: 1, RunningOpenAmount: 5000},
		{LedgerSequence: 4, AmountChanged: -1000, RunningOpenAmount: 4000},
	}
	assert.Empty(t, CheckLedgerEntries("b-1", entries))
}

func TestCheckLedgerEntriesDetectsSequenceRegression(t *testing.T) {
	entries := []LedgerEntry{
		{LedgerSequence: 2, RunningOpenAmount: 5000},
		{LedgerSequence: 2, AmountChanged: -1000, RunningOpenAmount: 4000},
	}
	findings := CheckLedgerEntries("b-1", entries)
	require.Len(t, findings, 1)
	assert.Equal(t, "b-1", findings[0].BookingID)
	assert.Contains(t, findings[0].Problem, "ledger_sequence")
}

func TestCheckLedgerEntriesDetectsDiscontinuity(t *testing.T) {
	entries := []LedgerEntry{
		{LedgerSequence: 1, RunningOpenAmount: 10000},
		{LedgerSequence: 2, AmountChanged: -3000, RunningOpenAmount: 6500},
	}
	findings := CheckLedgerEntries("b-2", entries)
	require.Len(t, findings, 1)
	assert.Equal(t, 2, findings[0].Sequence)
	assert.Contains(t, findings[0].Problem, "running_open_amount")
}

func TestCheckLedgerEntriesClampedZeroIsClean(t *testing.T) {
	// Over-consumption clamps at zero rather than going negative.
	entries := []LedgerEntry{
		{LedgerSequence: 1, RunningOpenAmount: 1000},
		{LedgerSequence: 2, AmountChanged: -1500, RunningOpenAmount: 0},
	}
	assert.Empty(t, CheckLedgerEntries("b-3", entries))
}

func TestCheckLedgerEntriesEmpty(t *testing.T) {
	assert.Empty(t, CheckLedgerEntries("b-4", nil))
}
