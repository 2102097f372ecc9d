package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  addresses TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(`DELETE FROM users`).Error)
	return db
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        "ana@example.com",
		PasswordHash: "argon2id$stub",
		FullName:     "Ana Alvarez",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RoleCustomer, created.Role)
	assert.True(t, created.IsActive)

	byEmail, err := repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Alvarez", byID.FullName)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        "login@example.com",
		PasswordHash: "argon2id$stub",
		FullName:     "Log In",
	})
	require.NoError(t, err)

	at := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, created.ID, at))

	reloaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, reloaded.LastLoginAt.Equal(at))
}

func TestRepositoryAppendAddressDedupesAndDefaults(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        "addr@example.com",
		PasswordHash: "argon2id$stub",
		FullName:     "Addy Book",
	})
	require.NoError(t, err)

	first := types.SavedAddress{
		FullName: "Addy Book",
		Phone:    "555-0100",
		Address:  "14 Birch Lane",
		City:     "Portland",
		State:    "OR",
		ZipCode:  "97201",
		Country:  "US",
	}
	added, err := repo.AppendAddress(ctx, created.ID, first)
	require.NoError(t, err)
	assert.True(t, added)

	// Same location with different casing and spacing must not create a
	// second entry.
	dupe := first
	dupe.Address = " 14 birch lane "
	dupe.City = "PORTLAND"
	added, err = repo.AppendAddress(ctx, created.ID, dupe)
	require.NoError(t, err)
	assert.False(t, added)

	second := types.SavedAddress{
		FullName: "Addy Book",
		Phone:    "555-0100",
		Address:  "9 Cedar Court",
		City:     "Salem",
		State:    "OR",
		ZipCode:  "97301",
		Country:  "US",
	}
	added, err = repo.AppendAddress(ctx, created.ID, second)
	require.NoError(t, err)
	assert.True(t, added)

	addresses, err := repo.ListAddresses(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	assert.True(t, addresses[0].IsDefault)
	assert.False(t, addresses[1].IsDefault)
}

func TestRepositoryRemoveAddressPromotesDefault(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        "remove@example.com",
		PasswordHash: "argon2id$stub",
		FullName:     "Rem Over",
	})
	require.NoError(t, err)

	_, err = repo.AppendAddress(ctx, created.ID, types.SavedAddress{
		Address: "14 Birch Lane", City: "Portland", State: "OR", ZipCode: "97201", Country: "US",
	})
	require.NoError(t, err)
	_, err = repo.AppendAddress(ctx, created.ID, types.SavedAddress{
		Address: "9 Cedar Court", City: "Salem", State: "OR", ZipCode: "97301", Country: "US",
	})
	require.NoError(t, err)

	addresses, err := repo.ListAddresses(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)

	removed, err := repo.RemoveAddress(ctx, created.ID, addresses[0].ID)
	require.NoError(t, err)
	assert.True(t, removed)

	remaining, err := repo.ListAddresses(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].IsDefault)

	removed, err = repo.RemoveAddress(ctx, created.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRepositorySetDefaultAddress(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        "default@example.com",
		PasswordHash: "argon2id$stub",
		FullName:     "Deff Ault",
	})
	require.NoError(t, err)

	_, err = repo.AppendAddress(ctx, created.ID, types.SavedAddress{
		Address: "14 Birch Lane", City: "Portland", State: "OR", ZipCode: "97201", Country: "US",
	})
	require.NoError(t, err)
	_, err = repo.AppendAddress(ctx, created.ID, types.SavedAddress{
		Address: "9 Cedar Court", City: "Salem", State: "OR", ZipCode: "97301", Country: "US",
	})
	require.NoError(t, err)

	addresses, err := repo.ListAddresses(ctx, created.ID)
	require.NoError(t, err)

	found, err := repo.SetDefaultAddress(ctx, created.ID, addresses[1].ID)
	require.NoError(t, err)
	assert.True(t, found)

	updated, err := repo.ListAddresses(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, updated[0].IsDefault)
	assert.True(t, updated[1].IsDefault)

	found, err = repo.SetDefaultAddress(ctx, created.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}
