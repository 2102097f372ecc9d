package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/internal/users"
	pkgAuth "github.com/davemoreau/maplewood-commerce/pkg/auth"
	"github.com/davemoreau/maplewood-commerce/pkg/auth/session"
	"github.com/davemoreau/maplewood-commerce/pkg/config"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	pkgerrors "github.com/davemoreau/maplewood-commerce/pkg/errors"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox"
)

type fakeTxRunner struct {
	db *gorm.DB
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return f.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type fakeSessionManager struct {
	sessions map[string]string
	seq      int
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{sessions: map[string]string{}}
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	f.seq++
	token := fmt.Sprintf("refresh-%d", f.seq)
	f.sessions[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.sessions[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.sessions, oldAccessID)
	newAccessID := session.NewAccessID()
	token, _ := f.Generate(ctx, newAccessID)
	return newAccessID, token, nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	delete(f.sessions, accessID)
	return nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type authFixture struct {
	svc     Service
	repo    *users.Repository
	session *fakeSessionManager
	outbox  *fakeOutbox
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	schema := `
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
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(`DELETE FROM users`).Error)

	repo := users.NewRepository(db)
	sessions := newFakeSessionManager()
	events := &fakeOutbox{}

	svc, err := NewService(ServiceParams{
		TxRunner:       fakeTxRunner{db: db},
		UserRepo:       repo,
		SessionManager: sessions,
		Outbox:         events,
		JWTConfig: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "maplewood-test",
			ExpirationMinutes: 15,
		},
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    8 * 1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	})
	require.NoError(t, err)

	return &authFixture{svc: svc, repo: repo, session: sessions, outbox: events}
}

func TestRegisterCreatesCustomerAndEmitsEvent(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		FullName: "Ana Alvarez",
		Email:    "  Ana@Example.com ",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "ana@example.com", resp.User.Email)
	assert.Equal(t, enums.RoleCustomer, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(config.JWTConfig{
		Secret: "test-secret", Issuer: "maplewood-test", ExpirationMinutes: 15,
	}, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, enums.RoleCustomer, claims.Role)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventUserRegistered, f.outbox.events[0].EventType)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		FullName: "Ana Alvarez",
		Email:    "dup@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), RegisterRequest{
		FullName: "Ana Imposter",
		Email:    "DUP@example.com",
		Password: "another-password-1",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestLoginRoundTrip(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		FullName: "Ana Alvarez",
		Email:    "login@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	resp, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "login@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User.LastLoginAt)

	_, err = f.svc.Login(context.Background(), LoginRequest{
		Email:    "login@example.com",
		Password: "wrong-password-entirely",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, invalidCredentialsMessage, typed.Message())

	_, err = f.svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse-battery",
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.svc.Register(context.Background(), RegisterRequest{
		FullName: "Ana Alvarez",
		Email:    "refresh@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  registered.AccessToken,
		RefreshToken: registered.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	// The old pair is burned after rotation.
	_, err = f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  registered.AccessToken,
		RefreshToken: registered.RefreshToken,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)

	registered, err := f.svc.Register(context.Background(), RegisterRequest{
		FullName: "Ana Alvarez",
		Email:    "logout@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(config.JWTConfig{
		Secret: "test-secret", Issuer: "maplewood-test", ExpirationMinutes: 15,
	}, registered.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), claims.ID))

	_, err = f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  registered.AccessToken,
		RefreshToken: registered.RefreshToken,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}
