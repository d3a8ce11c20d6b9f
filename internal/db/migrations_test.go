package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

func TestMigrate_SQLite(t *testing.T) {
	database, err := gorm.Open(sqlite.Open("file:migrate?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(database))
	require.NoError(t, Migrate(database), "migrations must be re-runnable")

	for _, m := range []any{&model.Contract{}, &model.Visit{}, &model.SchedulingProposal{}, &model.CollaboratorFailure{}} {
		assert.True(t, database.Migrator().HasTable(m))
	}
	assert.True(t, database.Migrator().HasIndex(&model.Visit{}, "uq_visit_contract_number"))
	assert.True(t, database.Migrator().HasColumn(&model.Contract{}, "client_signature_signed_at"))
}
