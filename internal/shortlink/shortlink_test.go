package shortlink

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/testhelpers"
)

func TestGenerator(t *testing.T) {
	gen := NewGenerator(DefaultLength)
	for i := 0; i < 100; i++ {
		token, err := gen.Next()
		require.NoError(t, err)
		assert.Len(t, token, DefaultLength)
		assert.True(t, Valid(token), token)
	}
}

func TestGeneratorPropagatesEntropyFailure(t *testing.T) {
	gen := &Generator{length: 6, rand: bytes.NewReader(nil)}
	_, err := gen.Next()
	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("ABCDEF"))
	assert.True(t, Valid("Q"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("abcdef"))
	assert.False(t, Valid("ABC123"))
	assert.False(t, Valid("ABCDEFGHI"))
	assert.False(t, Valid("AB/../"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: recipes.short_link")))
	assert.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_recipes_short_link" (SQLSTATE 23505)`)))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, IsUniqueViolation(nil))
}

// sequence returns a token source yielding tokens in order.
func sequence(tokens ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		if i >= len(tokens) {
			return "", errors.New("sequence exhausted")
		}
		i++
		return tokens[i-1], nil
	}
}

func insertRecipe(authorID uint, name string) InsertFunc {
	return func(tx *gorm.DB, token string) error {
		return tx.Omit("Author", "Ingredients", "Tags").Create(&models.Recipe{
			AuthorID:    authorID,
			Name:        name,
			Text:        "text",
			CookingTime: 10,
			PubDate:     time.Now(),
			ShortLink:   token,
		}).Error
	}
}

func TestAssignRetriesOnCollision(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	author := testhelpers.CreateUser(t, db, "chef")

	alloc := NewAllocator(NewGenerator(DefaultLength), DefaultMaxAttempts, testhelpers.Logger())
	alloc.next = sequence("AAAAAA")
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := alloc.Assign(tx, insertRecipe(author.ID, "first"))
		return err
	}))

	alloc.next = sequence("AAAAAA", "AAAAAA", "BBBBBB")
	var token string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		token, err = alloc.Assign(tx, insertRecipe(author.ID, "second"))
		return err
	}))
	assert.Equal(t, "BBBBBB", token)

	var recipes []models.Recipe
	require.NoError(t, db.Order("id").Find(&recipes).Error)
	require.Len(t, recipes, 2)
	assert.Equal(t, "AAAAAA", recipes[0].ShortLink)
	assert.Equal(t, "first", recipes[0].Name)
	assert.Equal(t, "BBBBBB", recipes[1].ShortLink)
	assert.Equal(t, "second", recipes[1].Name)
}

func TestAssignGivesUpAfterMaxAttempts(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	author := testhelpers.CreateUser(t, db, "chef")

	alloc := NewAllocator(NewGenerator(DefaultLength), 3, testhelpers.Logger())
	alloc.next = sequence("ZZZZZZ")
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := alloc.Assign(tx, insertRecipe(author.ID, "taken"))
		return err
	}))

	alloc.next = sequence("ZZZZZZ", "ZZZZZZ", "ZZZZZZ", "YYYYYY")
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := alloc.Assign(tx, insertRecipe(author.ID, "unlucky"))
		return err
	})
	assert.ErrorIs(t, err, ErrExhausted)

	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAssignReturnsOtherErrors(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)

	alloc := NewAllocator(NewGenerator(DefaultLength), DefaultMaxAttempts, testhelpers.Logger())
	boom := errors.New("boom")
	calls := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := alloc.Assign(tx, func(tx *gorm.DB, token string) error {
			calls++
			return boom
		})
		return err
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
