package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bookcatalog/internal/entities"
)

func TestNewDatabaseRequiresDSN(t *testing.T) {
	_, err := NewDatabase("")
	assert.Error(t, err)
}

func TestNewDatabaseMigratesSchema(t *testing.T) {
	dbPath := "./test_" + t.Name() + ".db"
	defer os.Remove(dbPath)

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	for _, model := range []any{
		&entities.User{},
		&entities.Book{},
		&entities.Review{},
		&entities.RatingSnapshot{},
	} {
		assert.True(t, db.DB.Migrator().HasTable(model))
	}
}

func TestDuplicateKeyTranslation(t *testing.T) {
	dbPath := "./test_" + t.Name() + ".db"
	defer os.Remove(dbPath)

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	user := entities.User{Name: "Alice", Username: "alice", Email: "alice@example.com", PasswordHash: "h"}
	require.NoError(t, db.DB.Create(&user).Error)

	dup := entities.User{Name: "Alice2", Username: "alice", Email: "other@example.com", PasswordHash: "h"}
	err = db.DB.Create(&dup).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
