package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newPG(t *testing.T) (*PG, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewPG(mock, 15*time.Minute, 3, 15*time.Minute), mock
}

func TestPG_Allow(t *testing.T) {
	l, mock := newPG(t)
	defer mock.Close()
	ctx := context.Background()
	ip := HashIP("1.2.3.4")

	// Unknown pair: allowed.
	mock.ExpectQuery(`SELECT blocked_until FROM login_attempts`).
		WithArgs("alice", ip).
		WillReturnError(pgx.ErrNoRows)
	ok, _, err := l.Allow(ctx, "alice", ip)
	require.NoError(t, err)
	require.True(t, ok)

	// Expired block: allowed.
	mock.ExpectQuery(`SELECT blocked_until FROM login_attempts`).
		WithArgs("alice", ip).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(time.Now().Add(-time.Minute)))
	ok, _, err = l.Allow(ctx, "alice", ip)
	require.NoError(t, err)
	require.True(t, ok)

	// Active block: denied with retry-after.
	mock.ExpectQuery(`SELECT blocked_until FROM login_attempts`).
		WithArgs("alice", ip).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(time.Now().Add(10 * time.Minute)))
	ok, retry, err := l.Allow(ctx, "alice", ip)
	require.NoError(t, err)
	require.False(t, ok)
	require.Greater(t, retry, time.Duration(0))
}

func TestPG_Failure_BlocksAtThreshold(t *testing.T) {
	l, mock := newPG(t)
	defer mock.Close()
	ctx := context.Background()
	ip := HashIP("1.2.3.4")

	// Below threshold: no block.
	mock.ExpectQuery(`INSERT INTO login_attempts`).
		WithArgs("alice", ip, l.window).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(2))
	blocked, _, err := l.Failure(ctx, "alice", ip)
	require.NoError(t, err)
	require.False(t, blocked)

	// At threshold: block is written.
	mock.ExpectQuery(`INSERT INTO login_attempts`).
		WithArgs("alice", ip, l.window).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(3))
	mock.ExpectExec(`UPDATE login_attempts SET blocked_until=\$3`).
		WithArgs("alice", ip, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	blocked, retry, err := l.Failure(ctx, "alice", ip)
	require.NoError(t, err)
	require.True(t, blocked)
	require.Equal(t, l.blockFor, retry)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_Success_Resets(t *testing.T) {
	l, mock := newPG(t)
	defer mock.Close()
	ip := HashIP("1.2.3.4")

	mock.ExpectExec(`ON CONFLICT \(username, ip_hash\)\s+DO UPDATE SET fail_count=0`).
		WithArgs("alice", ip).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, l.Success(context.Background(), "alice", ip))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHashIP_Stable(t *testing.T) {
	t.Parallel()
	a := HashIP("1.2.3.4")
	b := HashIP("1.2.3.4")
	c := HashIP("5.6.7.8")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 32)
}
