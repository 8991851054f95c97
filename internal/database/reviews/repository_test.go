package reviews

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bookcatalog/internal/database"
	"bookcatalog/internal/entities"
)

// setupTestRepo creates a fresh test database with a seeded book and two
// users.
func setupTestRepo(t *testing.T) (*Repository, *gorm.DB, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return NewRepository(db.DB), db.DB, cleanup
}

func seedBookAndUsers(t *testing.T, db *gorm.DB) (entities.Book, entities.User, entities.User) {
	t.Helper()

	book := entities.Book{ISBN: "0380795272", Title: "Krondor: The Betrayal", Author: "Raymond E. Feist", Year: 1998}
	require.NoError(t, db.Create(&book).Error)

	alice := entities.User{Name: "Alice Smith", Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, db.Create(&alice).Error)

	bob := entities.User{Name: "Bob Jones", Username: "bob", Email: "bob@example.com", PasswordHash: "hash"}
	require.NoError(t, db.Create(&bob).Error)

	return book, alice, bob
}

func TestUpsertCreatesReview(t *testing.T) {
	repo, db, cleanup := setupTestRepo(t)
	defer cleanup()
	book, alice, _ := seedBookAndUsers(t, db)

	review, err := repo.Upsert(book.ID, alice.ID, "Loved it", 5)
	require.NoError(t, err)
	assert.NotZero(t, review.ID)
	assert.Equal(t, "Loved it", review.Review)
	assert.Equal(t, 5, review.Rating)
	assert.WithinDuration(t, time.Now(), review.Posted, time.Minute)
}

func TestUpsertReplacesExistingReview(t *testing.T) {
	repo, db, cleanup := setupTestRepo(t)
	defer cleanup()
	book, alice, _ := seedBookAndUsers(t, db)

	_, err := repo.Upsert(book.ID, alice.ID, "Loved it", 5)
	require.NoError(t, err)

	updated, err := repo.Upsert(book.ID, alice.ID, "On reflection, just fine", 3)
	require.NoError(t, err)
	assert.Equal(t, "On reflection, just fine", updated.Review)
	assert.Equal(t, 3, updated.Rating)

	// Still a single row for the pair
	count, err := repo.CountForBook(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpsertSeparateUsersKeepSeparateReviews(t *testing.T) {
	repo, db, cleanup := setupTestRepo(t)
	defer cleanup()
	book, alice, bob := seedBookAndUsers(t, db)

	_, err := repo.Upsert(book.ID, alice.ID, "Loved it", 5)
	require.NoError(t, err)
	_, err = repo.Upsert(book.ID, bob.ID, "Not my thing", 2)
	require.NoError(t, err)

	count, err := repo.CountForBook(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestListForBookPreloadsAuthors(t *testing.T) {
	repo, db, cleanup := setupTestRepo(t)
	defer cleanup()
	book, alice, bob := seedBookAndUsers(t, db)

	_, err := repo.Upsert(book.ID, alice.ID, "Loved it", 5)
	require.NoError(t, err)
	_, err = repo.Upsert(book.ID, bob.ID, "Not my thing", 2)
	require.NoError(t, err)

	reviews, err := repo.ListForBook(book.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	usernames := []string{reviews[0].User.Username, reviews[1].User.Username}
	assert.ElementsMatch(t, []string{"alice", "bob"}, usernames)
}

func TestListForBookEmpty(t *testing.T) {
	repo, db, cleanup := setupTestRepo(t)
	defer cleanup()
	book, _, _ := seedBookAndUsers(t, db)

	reviews, err := repo.ListForBook(book.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	count, err := repo.CountForBook(book.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
