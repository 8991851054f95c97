package auth

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bookcatalog/internal/config"
	"bookcatalog/internal/database"
	"bookcatalog/internal/database/users"
)

// setupTestService creates an auth service over a fresh test database.
func setupTestService(t *testing.T) (*Service, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	service := NewService(users.NewRepository(db.DB), config.Auth{BcryptCost: bcrypt.MinCost})
	return service, cleanup
}

func TestRegisterValidation(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.Register("", "alice", "pw123", "alice@example.com", AgeNotProvided)
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = service.Register("Alice Smith", "", "pw123", "alice@example.com", AgeNotProvided)
	assert.ErrorIs(t, err, ErrUsernameRequired)

	_, err = service.Register("Alice Smith", "alice", "", "alice@example.com", AgeNotProvided)
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = service.Register("Alice Smith", "alice", "pw123", "", AgeNotProvided)
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestRegisterStoresHashNotPassword(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	user, err := service.Register("Alice Smith", "alice", "pw123", "alice@example.com", 30)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "pw123", user.PasswordHash)
	assert.NoError(t, CheckPassword("pw123", user.PasswordHash))
	assert.Equal(t, 30, user.Age)
}

func TestRegisterAgeOptional(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	user, err := service.Register("Alice Smith", "alice", "pw123", "alice@example.com", AgeNotProvided)
	require.NoError(t, err)
	assert.Equal(t, AgeNotProvided, user.Age)
}

func TestRegisterDuplicate(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.Register("Alice Smith", "alice", "pw123", "alice@example.com", AgeNotProvided)
	require.NoError(t, err)

	_, err = service.Register("Other Alice", "alice", "pw456", "other@example.com", AgeNotProvided)
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = service.Register("Bob Jones", "bob", "pw456", "alice@example.com", AgeNotProvided)
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestAuthenticate(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.Register("Alice Smith", "alice", "pw123", "alice@example.com", AgeNotProvided)
	require.NoError(t, err)

	user, err := service.Authenticate("alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = service.Authenticate("alice", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = service.Authenticate("nobody", "pw123")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestGetUserByID(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	created, err := service.Register("Alice Smith", "alice", "pw123", "alice@example.com", AgeNotProvided)
	require.NoError(t, err)

	user, err := service.GetUserByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = service.GetUserByID(9999)
	assert.ErrorIs(t, err, ErrUnknownUser)
}
