package fx

import (
	"database/sql"

	"github.com/Hardik-nyneos/backend/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FXService struct {
	config map[string]interface{}
	db     *sql.DB
	pool   *pgxpool.Pool
}

func NewFXService(cfg map[string]interface{}, db *sql.DB, pool *pgxpool.Pool) serviceiface.Service {
	return &FXService{config: cfg, db: db, pool: pool}
}

func (s *FXService) Name() string {
	return "fx"
}

func (s *FXService) Start() error {
	go StartFXService(s.db, s.pool)
	return nil
}

func (s *FXService) Stop() error {
	return nil
}
