// internal/workers/registration/create-affiliate-record/postgres.go
package createaffiliaterecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"affiliate-registration/internal/common/logger"
	"affiliate-registration/internal/models"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS affiliates (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	instagram  TEXT NOT NULL,
	phone      TEXT NOT NULL,
	email      TEXT NOT NULL,
	address    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS audit_log (
	id            BIGSERIAL PRIMARY KEY,
	event_type    TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id   TEXT NOT NULL,
	details       JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps records in the affiliates table. The id sequence
// provides ordering across processes.
type PostgresStore struct {
	db       *sql.DB
	auditLog bool
	logger   logger.Logger
	now      func() time.Time
}

func NewPostgresStore(db *sql.DB, auditLog bool, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:       db,
		auditLog: auditLog,
		logger:   log.WithFields(map[string]interface{}{"store": "postgres"}),
		now:      time.Now,
	}
}

// EnsureSchema creates the tables the store writes to.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrStorageFailed, err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, req *models.RegistrationRequest) (*models.RegistrationRecord, error) {
	createdAt := s.now().UTC()

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO affiliates (name, instagram, phone, email, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		req.Name,
		req.Instagram,
		req.Phone,
		req.Email,
		req.Address,
		createdAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrStorageFailed, err)
	}

	if s.auditLog {
		s.writeAudit(ctx, id, req)
	}

	return models.NewRecord(req, id, createdAt), nil
}

// writeAudit never fails the registration it describes.
func (s *PostgresStore) writeAudit(ctx context.Context, id int64, req *models.RegistrationRequest) {
	details, err := json.Marshal(map[string]interface{}{
		"email":     req.Email,
		"instagram": req.Instagram,
	})
	if err != nil {
		details = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"affiliate_registered",
		"affiliate",
		strconv.FormatInt(id, 10),
		details,
		s.now().UTC(),
	)
	if err != nil {
		s.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":       err,
			"affiliateId": id,
		})
	}
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM affiliates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count failed: %v", ErrStorageFailed, err)
	}
	return count, nil
}
