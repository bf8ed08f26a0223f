package jobs

import (
	"fmt"
	"log"

	"github.com/Hardik-nyneos/backend/internal/logger"
	"github.com/Hardik-nyneos/backend/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type JobScheduler struct {
	config map[string]interface{}
	db     *pgxpool.Pool
}

func NewJobScheduler(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &JobScheduler{
		config: cfg,
		db:     db,
	}
}

func (s *JobScheduler) Name() string {
	return "jobs"
}

func (s *JobScheduler) Start() error {
	auditConfig := NewDefaultLedgerAuditConfig()

	// Override schedule from services.yaml if provided
	if s.config != nil {
		if schedule, ok := s.config["ledger_audit_schedule"].(string); ok && schedule != "" {
			auditConfig.Schedule = schedule
		}
	}

	if err := RunLedgerAuditScheduler(auditConfig, s.db); err != nil {
		return fmt.Errorf("failed to start ledger audit scheduler: %v", err)
	}

	logger.GlobalLogger.LogAudit("Job scheduler started with ledger audit")
	log.Println("Job scheduler started — Ledger Audit scheduled")

	return nil
}

func (s *JobScheduler) Stop() error {
	log.Println("Job scheduler stopped.")
	return nil
}
