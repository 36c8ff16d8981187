package repositories

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"edumarket/internal/database"
	"edumarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newGORMKVStore(t *testing.T) *GORMKVStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Open(database.DriverSQLite, dsn)
	require.NoError(t, err)
	return NewGORMKVStore(db)
}

func TestGORMKVStore_SetGetDelete(t *testing.T) {
	kv := newGORMKVStore(t)

	_, found, err := kv.Get("missing")
	assert.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set("k", "v1"))
	require.NoError(t, kv.Set("k", "v2"))
	value, found, err := kv.Get("k")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", value)

	require.NoError(t, kv.Delete("k"))
	require.NoError(t, kv.Delete("k"))
	_, found, err = kv.Get("k")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestKVListingRepository_PersistsThroughGORM(t *testing.T) {
	kv := newGORMKVStore(t)
	repo := NewKVListingRepository(kv)

	listing := &models.Listing{Kind: models.KindBook, Title: "Calculus", Price: 450, Book: &models.BookDetails{Author: "Stewart"}}
	require.NoError(t, repo.Create(listing))
	assert.NotEmpty(t, listing.ID)

	// A second repository over the same table sees the write.
	fetched, err := NewKVListingRepository(kv).GetByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Calculus", fetched.Title)
	assert.Equal(t, "Stewart", fetched.Book.Author)

	raw, _, err := kv.Get(ListingsKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"version":1`)
}

func TestKVListingRepository_UpdateAndDelete(t *testing.T) {
	repo := NewKVListingRepository(NewMockKVStore())

	listing := &models.Listing{Kind: models.KindBook, Title: "Physics", Price: 300}
	require.NoError(t, repo.Create(listing))

	sold := true
	updated, err := repo.Update(listing.ID, models.ListingUpdate{Sold: &sold})
	require.NoError(t, err)
	assert.True(t, updated.Sold)

	_, err = repo.Update("missing", models.ListingUpdate{Sold: &sold})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(listing.ID))
	require.NoError(t, repo.Delete(listing.ID))

	_, err = repo.GetByID(listing.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestKVListingRepository_CorruptStateAndWriteFailure(t *testing.T) {
	kv := NewMockKVStore()
	repo := NewKVListingRepository(kv)

	require.NoError(t, kv.Set(ListingsKey, "{not json"))
	_, err := repo.GetAll()
	assert.ErrorIs(t, err, ErrCorruptState)

	err = repo.Create(&models.Listing{Title: "X", Price: 1})
	assert.ErrorIs(t, err, ErrCorruptState)

	raw, _, _ := kv.Get(ListingsKey)
	assert.Equal(t, "{not json", raw, "a failed create must not overwrite stored data")

	require.NoError(t, kv.Delete(ListingsKey))
	kv.FailWrites(errors.New("quota exceeded"))
	err = repo.Create(&models.Listing{Title: "X", Price: 1})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestKVListingRepository_RejectsNewerVersion(t *testing.T) {
	kv := NewMockKVStore()
	require.NoError(t, kv.Set(ListingsKey, `{"version":99,"data":[]}`))

	_, err := NewKVListingRepository(kv).GetAll()
	assert.ErrorIs(t, err, ErrCorruptState)
}

func TestKVListingRepository_MigratesLegacyRecords(t *testing.T) {
	kv := NewMockKVStore()
	legacy := `[
		{"id":"b1","sellerId":"u1","sellerName":"Asha","sellerEmail":"asha@x.com","title":"Calculus",
		 "author":"Stewart","subject":"Maths","condition":"Good","price":450,"description":"Clean copy",
		 "images":["data:image/png;base64,AAA"],"createdAt":"2024-03-01T10:00:00.000Z","sold":false},
		{"id":"n1","sellerId":"u1","sellerName":"Asha","sellerEmail":"asha@x.com","sellerUPI":"asha@upi",
		 "title":"DSA notes","author":"B.Tech CSE - Sem 3","subject":"DSA","condition":"Like New","price":99.6,
		 "description":"Handwritten\n\nCourse: B.Tech CSE\nSemester: Sem 3\nUniversity: Anna University",
		 "images":[],"createdAt":"2024-03-02T10:00:00.000Z","sold":true}
	]`
	require.NoError(t, kv.Set(ListingsKey, legacy))

	listings, err := NewKVListingRepository(kv).GetAll()
	require.NoError(t, err)
	require.Len(t, listings, 2)

	book := listings[0]
	assert.Equal(t, models.KindBook, book.Kind)
	assert.Equal(t, "Stewart", book.Book.Author)
	assert.Equal(t, int64(450), book.Price)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), book.CreatedAt.UTC())

	note := listings[1]
	assert.Equal(t, models.KindNote, note.Kind)
	assert.Nil(t, note.Book)
	assert.Equal(t, &models.NoteDetails{Course: "B.Tech CSE", Semester: "Sem 3", University: "Anna University"}, note.Note)
	assert.Equal(t, "Handwritten", note.Description)
	assert.Equal(t, "B.Tech CSE - Sem 3", note.Label())
	assert.Equal(t, int64(100), note.Price)
	assert.True(t, note.Sold)
}

func TestKVAccountRepository_CreateAndFind(t *testing.T) {
	repo := NewKVAccountRepository(NewMockKVStore())

	account := &models.Account{Name: "Asha", Email: "asha@x.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(account))
	assert.NotEmpty(t, account.ID)
	assert.False(t, account.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail("asha@x.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)

	byID, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", byID.Name)

	_, err = repo.GetByEmail("ASHA@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKVAccountRepository_MigratesLegacyPasswords(t *testing.T) {
	kv := NewMockKVStore()
	encoded := base64.StdEncoding.EncodeToString([]byte("secret1"))
	legacy := `[{"id":"u1","name":"Asha","email":"asha@x.com","password":"` + encoded + `","createdAt":"2024-03-01T10:00:00.000Z"},
		{"id":"u2","name":"Ravi","email":"ravi@x.com","password":"%%%","createdAt":"2024-03-01T10:00:00.000Z"}]`
	require.NoError(t, kv.Set(AccountsKey, legacy))

	accounts, err := NewKVAccountRepository(kv).GetAll()
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(accounts[0].PasswordHash), []byte("secret1")))
	assert.Empty(t, accounts[1].PasswordHash)
}

func TestKVAccountRepository_StoresMigratedAccountsOnce(t *testing.T) {
	kv := NewMockKVStore()
	encoded := base64.StdEncoding.EncodeToString([]byte("secret1"))
	require.NoError(t, kv.Set(AccountsKey, `[{"id":"u1","name":"Asha","email":"asha@x.com","password":"`+encoded+`"}]`))
	repo := NewKVAccountRepository(kv)

	first, err := repo.GetByEmail("asha@x.com")
	require.NoError(t, err)

	raw, _, _ := kv.Get(AccountsKey)
	assert.True(t, strings.HasPrefix(raw, `{"version":1`), "stored value: %s", raw)
	assert.NotContains(t, raw, encoded)

	// bcrypt salts differ per hash, so an unchanged hash means no second migration
	second, err := repo.GetByEmail("asha@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.PasswordHash, second.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(second.PasswordHash), []byte("secret1")))
}

func TestKVListingRepository_MigrationSurvivesWriteFailure(t *testing.T) {
	kv := NewMockKVStore()
	legacy := `[{"id":"b1","title":"Calculus","author":"Stewart","price":450,"createdAt":"2024-03-01T10:00:00.000Z"}]`
	require.NoError(t, kv.Set(ListingsKey, legacy))
	kv.FailWrites(errors.New("quota exceeded"))

	listings, err := NewKVListingRepository(kv).GetAll()
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Calculus", listings[0].Title)

	raw, _, _ := kv.Get(ListingsKey)
	assert.Equal(t, legacy, raw)

	kv.FailWrites(nil)
	_, err = NewKVListingRepository(kv).GetAll()
	require.NoError(t, err)
	raw, _, _ = kv.Get(ListingsKey)
	assert.True(t, strings.HasPrefix(raw, `{"version":1`), "stored value: %s", raw)
}

func TestKVSessionRepository_Lifecycle(t *testing.T) {
	kv := NewMockKVStore()
	repo := NewKVSessionRepository(kv)

	session, err := repo.Get()
	require.NoError(t, err)
	assert.Nil(t, session)

	require.NoError(t, repo.Set(models.Session{ID: "u1", Name: "Asha", Email: "asha@x.com"}))
	session, err = repo.Get()
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "u1", session.ID)

	require.NoError(t, repo.Clear())
	require.NoError(t, repo.Clear())
	session, err = repo.Get()
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestKVSessionRepository_ReadsLegacyPointer(t *testing.T) {
	kv := NewMockKVStore()
	require.NoError(t, kv.Set(SessionKey, `{"id":"u1","name":"Asha","email":"asha@x.com"}`))

	session, err := NewKVSessionRepository(kv).Get()
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "asha@x.com", session.Email)

	require.NoError(t, kv.Set(SessionKey, "null"))
	session, err = NewKVSessionRepository(kv).Get()
	require.NoError(t, err)
	assert.Nil(t, session)
}
