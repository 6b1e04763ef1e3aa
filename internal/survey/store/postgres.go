package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sync"

	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/models"

	"github.com/lib/pq"
)

// Postgres stores each submission as a JSONB row. completed_at defaults to
// now() on the server.
type Postgres struct {
	db *sql.DB

	mu      sync.Mutex
	ensured map[string]bool
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, ensured: make(map[string]bool)}
}

func (s *Postgres) Backend() string { return "postgres" }

func createTableSQL(table string) string {
	t := pq.QuoteIdentifier(table)
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id              BIGSERIAL PRIMARY KEY,
	submission_id   TEXT        NOT NULL,
	user_id         TEXT        NOT NULL,
	location        TEXT        NOT NULL,
	device_type     TEXT        NOT NULL,
	validation_code TEXT        NOT NULL,
	document        JSONB       NOT NULL,
	completed_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`, t)
}

func insertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (submission_id, user_id, location, device_type, validation_code, document)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, completed_at`, pq.QuoteIdentifier(table))
}

// EnsureSchema creates the collection table if it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured[collection] {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, createTableSQL(collection)); err != nil {
		return s.classify(err)
	}
	s.ensured[collection] = true
	return nil
}

func (s *Postgres) AppendRecord(ctx context.Context, collection string, doc models.SessionSubmission) error {
	if err := s.EnsureSchema(ctx, collection); err != nil {
		return err
	}

	payload, err := encode(doc)
	if err != nil {
		return errors.NewPayloadInvalidError(err.Error())
	}

	var (
		id          int64
		completedAt sql.NullTime
	)
	err = s.db.QueryRowContext(ctx, insertSQL(collection),
		doc.SubmissionID,
		doc.UserID,
		string(doc.Demographics.Location),
		string(doc.DeviceType),
		doc.ValidationCode,
		string(payload),
	).Scan(&id, &completedAt)
	if err != nil {
		return s.classify(err)
	}
	return nil
}

// classify maps server-side errors to rejections and everything else to unavailability.
func (s *Postgres) classify(err error) error {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return errors.NewStoreWriteRejectedError(s.Backend(), fmt.Sprintf("%s (%s)", pqErr.Message, pqErr.Code)).
			WithMetadata("sqlstate", string(pqErr.Code))
	}
	return errors.NewStoreUnavailableError(s.Backend(), err)
}

func (s *Postgres) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewStoreUnavailableError(s.Backend(), err)
	}
	return nil
}

func (s *Postgres) Close() error {
	return s.db.Close()
}
