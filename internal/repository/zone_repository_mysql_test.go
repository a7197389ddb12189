//go:build mysql

package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/festival-reservation/internal/database"
	"github.com/iliyamo/festival-reservation/internal/model"
)

// Run with: FESTIVAL_TEST_MYSQL_DSN='user:pass@tcp(127.0.0.1:3306)/festival_test?parseTime=true' go test -tags mysql ./internal/repository/
func openTestMySQL(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("FESTIVAL_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("FESTIVAL_TEST_MYSQL_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func TestReserveTx_LastTableOneWinner(t *testing.T) {
	db := openTestMySQL(t)
	ctx := context.Background()
	repo := NewZoneRepo(db)

	res, err := db.ExecContext(ctx, `INSERT INTO festivals (name) VALUES ('race test')`)
	require.NoError(t, err)
	festivalID, err := res.LastInsertId()
	require.NoError(t, err)

	z := &model.Zone{FestivalID: uint64(festivalID), Name: "last table", TotalTables: 1, AvailableTables: 1}
	require.NoError(t, repo.Create(ctx, z))
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, `DELETE FROM zones WHERE id = ?`, z.ID)
		_, _ = db.ExecContext(ctx, `DELETE FROM festivals WHERE id = ?`, festivalID)
	})

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.ReserveTx(ctx, db, z.ID, 1)
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			short++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, short)

	got, err := repo.GetByID(ctx, db, z.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableTables)
}
