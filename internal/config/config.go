package config

const (
	DefaultTimeZone = "Asia/Kolkata"
	BatchSize       = 1000

	// Ledger audit runs nightly after the MTM uploads settle.
	DefaultLedgerAuditSchedule = "30 1 * * *"
)
