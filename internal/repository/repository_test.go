package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/database"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.DriverSQLite, database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(ctx, db, database.DriverSQLite, zerolog.Nop()))
	return db
}

func createUser(t *testing.T, repo *UserRepository, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Test", Password: "hash"}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}
