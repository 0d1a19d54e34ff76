package attempt

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(sqlx.NewDb(db, "postgres"))
	return repo, mock
}

func TestRepository_Record(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.now = func() time.Time { return now }

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_attempts")).
		WithArgs(HashCode("ABC123"), "a@example.com", "10.0.0.1", true, OutcomeSuccess, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Record(context.Background(), "ABC123", "a@example.com", "10.0.0.1", true, OutcomeSuccess)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_attempts")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Record(context.Background(), "ABC123", "", "10.0.0.1", false, OutcomeNotAuthorized)
	require.ErrorContains(t, err, "failed to record verification attempt")
}

func TestRepository_RecentFailures(t *testing.T) {
	repo, mock := newMockRepository(t)
	since := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	at := since.Add(time.Hour)

	rows := sqlmock.NewRows([]string{"id", "code_hash", "email", "ip_address", "success", "reason", "attempted_at"}).
		AddRow(2, HashCode("B"), "", "10.0.0.1", false, OutcomeNotAuthorized, at).
		AddRow(1, HashCode("A"), "", "10.0.0.1", false, OutcomeRateLimited, since)
	mock.ExpectQuery(regexp.QuoteMeta("FROM verification_attempts")).
		WithArgs("10.0.0.1", since).
		WillReturnRows(rows)

	attempts, err := repo.RecentFailures(context.Background(), "10.0.0.1", since)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	require.Equal(t, int64(2), attempts[0].ID)
	require.Equal(t, OutcomeNotAuthorized, attempts[0].Reason)
	require.Equal(t, at, attempts[0].AttemptedAt)
	require.False(t, attempts[1].Success)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS verification_attempts")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
