package database

import (
	"sync"
	"testing"

	modelspkg "fellowship/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestPersistentModels_IncludesAggregateTables(t *testing.T) {
	var foundTotals, foundEvents bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *modelspkg.XpTotals:
			foundTotals = true
		case *modelspkg.XpEvent:
			foundEvents = true
		}
	}
	require.True(t, foundTotals, "PersistentModels should include XpTotals")
	require.True(t, foundEvents, "PersistentModels should include XpEvent")
}

func TestPersistentModels_TablesMatchMigration(t *testing.T) {
	m := GetMigrationByVersion(1)
	require.NotNil(t, m)

	for _, model := range PersistentModels() {
		s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)
		assert.Contains(t, m.UpScript, "CREATE TABLE IF NOT EXISTS "+s.Table+" ",
			"migration should create table %s", s.Table)
	}
}
