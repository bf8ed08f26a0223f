package jobs

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Hardik-nyneos/backend/internal/config"
	"github.com/Hardik-nyneos/backend/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// LedgerAuditConfig holds the schedule for the nightly forward booking
// ledger consistency check.
type LedgerAuditConfig struct {
	Schedule string
	TimeZone string
}

// LedgerEntry is one forward_booking_ledger row in sequence order.
type LedgerEntry struct {
	LedgerSequence    int
	ActionType        string
	AmountChanged     float64
	RunningOpenAmount float64
}

// LedgerFinding names a ledger inconsistency for one booking.
type LedgerFinding struct {
	BookingID string
	Sequence  int
	Problem   string
}

func NewDefaultLedgerAuditConfig() *LedgerAuditConfig {
	return &LedgerAuditConfig{
		Schedule: config.DefaultLedgerAuditSchedule,
		TimeZone: config.DefaultTimeZone,
	}
}

// CheckLedgerEntries walks one booking's ledger in sequence order and
// reports gaps in ledger_sequence and running-open discontinuities. The
// running open amount of each row must equal the previous row's running
// open plus the row's amount_changed (the opening row sets the baseline).
func CheckLedgerEntries(bookingID string, entries []LedgerEntry) []LedgerFinding {
	var findings []LedgerFinding
	if len(entries) == 0 {
		return findings
	}
	const tolerance = 0.01
	prevSeq := entries[0].LedgerSequence
	prevOpen := entries[0].RunningOpenAmount
	for _, e := range entries[1:] {
		if e.LedgerSequence <= prevSeq {
			findings = append(findings, LedgerFinding{
				BookingID: bookingID,
				Sequence:  e.LedgerSequence,
				Problem:   fmt.Sprintf("ledger_sequence %d not after %d", e.LedgerSequence, prevSeq),
			})
		}
		expected := prevOpen + e.AmountChanged
		if expected < 0 {
			expected = 0
		}
		if math.Abs(e.RunningOpenAmount-expected) > tolerance {
			findings = append(findings, LedgerFinding{
				BookingID: bookingID,
				Sequence:  e.LedgerSequence,
				Problem:   fmt.Sprintf("running_open_amount %.2f, expected %.2f", e.RunningOpenAmount, expected),
			})
		}
		prevSeq = e.LedgerSequence
		prevOpen = e.RunningOpenAmount
	}
	return findings
}

// AuditForwardLedgers loads every booking's ledger rows and logs the
// inconsistencies it finds. Observation only, nothing is repaired.
func AuditForwardLedgers(db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rows, err := db.Query(ctx, `
		SELECT booking_id, ledger_sequence, action_type, amount_changed, running_open_amount
		FROM forward_booking_ledger
		ORDER BY booking_id, ledger_sequence
	`)
	if err != nil {
		return fmt.Errorf("ledger audit query failed: %v", err)
	}
	defer rows.Close()

	byBooking := make(map[string][]LedgerEntry)
	var order []string
	for rows.Next() {
		var bookingID string
		var e LedgerEntry
		if err := rows.Scan(&bookingID, &e.LedgerSequence, &e.ActionType, &e.AmountChanged, &e.RunningOpenAmount); err != nil {
			return fmt.Errorf("ledger audit scan failed: %v", err)
		}
		if _, seen := byBooking[bookingID]; !seen {
			order = append(order, bookingID)
		}
		byBooking[bookingID] = append(byBooking[bookingID], e)
	}

	total := 0
	for _, bookingID := range order {
		for _, f := range CheckLedgerEntries(bookingID, byBooking[bookingID]) {
			total++
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Ledger audit: booking %s seq %d: %s", f.BookingID, f.Sequence, f.Problem))
		}
	}
	if total == 0 {
		log.Printf("[INFO] Ledger audit: %d bookings checked, no findings", len(order))
	} else {
		log.Printf("[ERROR] Ledger audit: %d findings across %d bookings", total, len(order))
	}
	return nil
}

// RunLedgerAuditScheduler starts the cron job for the nightly ledger audit
func RunLedgerAuditScheduler(cfg *LedgerAuditConfig, db *pgxpool.Pool) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultLedgerAuditSchedule
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.Schedule, func() {
		if err := AuditForwardLedgers(db); err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Ledger audit failed: %v", err))
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule ledger audit: %v", err)
	}

	c.Start()
	logger.GlobalLogger.LogAudit("Ledger audit scheduler started")

	return nil
}
