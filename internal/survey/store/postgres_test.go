package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"rumble-survey/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// documentArg matches the JSONB parameter.
type documentArg struct {
	responses int
}

func (a documentArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	var doc map[string]interface{}
	if json.Unmarshal([]byte(s), &doc) != nil {
		return false
	}
	_, hasCompleted := doc["completedAt"]
	responses, _ := doc["responses"].([]interface{})
	return !hasCompleted && len(responses) == a.responses
}

func TestPostgres_AppendRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	doc := sampleSubmission()
	s := NewPostgres(db)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "rumble_responses"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	for range 2 {
		mock.ExpectQuery(`INSERT INTO "rumble_responses"`).
			WithArgs(doc.SubmissionID, "anon-1", "Montclair", "Desktop", "K7Q2ZD", documentArg{responses: 8}).
			WillReturnRows(sqlmock.NewRows([]string{"id", "completed_at"}).AddRow(1, time.Now()))
	}

	require.NoError(t, s.AppendRecord(context.Background(), Collection, doc))
	require.NoError(t, s.AppendRecord(context.Background(), Collection, doc), "retry writes a second row")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{
			name: "server rejects row",
			err:  &pq.Error{Code: "23502", Message: `null value in column "user_id"`},
			code: errors.ErrCodeStoreWriteRejected,
		},
		{
			name: "connection lost",
			err:  stderrors.New("read tcp 10.0.0.2:5432: connection reset by peer"),
			code: errors.ErrCodeStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(`CREATE TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`INSERT INTO`).WillReturnError(tt.err)

			err = NewPostgres(db).AppendRecord(context.Background(), Collection, sampleSubmission())
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code))
			assert.True(t, errors.IsRetryable(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgres_SchemaRetriedAfterFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(stderrors.New("connection refused"))
	mock.ExpectExec(`CREATE TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "completed_at"}).AddRow(7, time.Now()))

	s := NewPostgres(db)
	err = s.AppendRecord(context.Background(), Collection, sampleSubmission())
	assert.True(t, errors.HasCode(err, errors.ErrCodeStoreUnavailable))

	require.NoError(t, s.AppendRecord(context.Background(), Collection, sampleSubmission()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QuotesCollection(t *testing.T) {
	assert.Contains(t, createTableSQL(`x"; DROP TABLE y; --`), `"x""; DROP TABLE y; --"`)
	assert.Contains(t, insertSQL("rumble_responses"), `INSERT INTO "rumble_responses"`)
}
