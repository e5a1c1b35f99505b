package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ragstack/internal/cache"
	"ragstack/internal/model"
	"ragstack/internal/pkg/jwtutil"
	"ragstack/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.UserPreferences{},
		&model.Collection{},
		&model.CollectionSettings{},
		&model.Document{},
		&model.DocumentChunk{},
	))
	return db
}

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	userRepo := repository.NewUserRepository(newTestDB(t))
	return NewAuthService(userRepo, newTestTokenBlacklist(t), "test-secret", 30*time.Minute, 7*24*time.Hour)
}

func newTestTokenBlacklist(t *testing.T) *cache.TokenBlacklist {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewTokenBlacklist(client)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "Alice@Example.com",
		Name:     "Alice",
		Password: "password123",
	})
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, model.RoleUser, result.User.Role)
	assert.Equal(t, "tenant-example-com", result.User.TenantID)
	assert.NotEmpty(t, result.User.ID)

	login, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
	assert.NotNil(t, login.User.LastLogin)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "bob@acme.io", Name: "Bob", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "BOB@acme.io", Name: "Bob II", Password: "password456"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "no-at-sign", Name: "X", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{Email: "x@y.com", Name: "X", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{Email: "x@y.com", Name: "", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "carol@x.dev", Name: "Carol", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "carol@x.dev", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@x.dev", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLoginDisabledAccount(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewAuthService(userRepo, nil, "test-secret", 30*time.Minute, 7*24*time.Hour)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Email: "dan@x.dev", Name: "Dan", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.User{}).Where("id = ?", result.User.ID).Update("is_active", false).Error)

	_, err = svc.Login(ctx, LoginInput{Email: "dan@x.dev", Password: "password123"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestExplicitTenantKept(t *testing.T) {
	svc := newTestAuthService(t)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "erin@corp.com",
		Name:     "Erin",
		Password: "password123",
		TenantID: "tenant-custom",
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant-custom", result.User.TenantID)
}

func TestPreferencesDefaultsAndSave(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Email: "fay@x.dev", Name: "Fay", Password: "password123"})
	require.NoError(t, err)

	prefs, err := svc.GetPreferences(result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "system", prefs.Theme)
	assert.Equal(t, "en", prefs.Language)

	saved, err := svc.SavePreferences(result.User.ID, model.UserPreferences{Theme: "dark", Language: "de", Timezone: "Europe/Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "dark", saved.Theme)

	reloaded, err := svc.GetPreferences(result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "dark", reloaded.Theme)
	assert.Equal(t, "Europe/Berlin", reloaded.Timezone)
}

func TestDeriveTenantID(t *testing.T) {
	assert.Equal(t, "tenant-example-com", deriveTenantID("a@example.com"))
	assert.Equal(t, "tenant-default", deriveTenantID("broken-email"))
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Email: "gil@x.dev", Name: "Gil", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, result.RefreshToken, refreshed.RefreshToken)

	// a refresh token is single use; the old one is revoked on rotation
	_, err = svc.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLogoutBlocksRefresh(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Email: "hal@x.dev", Name: "Hal", Password: "password123"})
	require.NoError(t, err)

	claims, err := jwtutil.ParseToken("test-secret", result.RefreshToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	_, err = svc.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
