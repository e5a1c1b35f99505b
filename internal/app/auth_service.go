package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ragstack/internal/cache"
	"ragstack/internal/metrics"
	"ragstack/internal/model"
	"ragstack/internal/pkg/jwtutil"
	"ragstack/internal/repository"
)

type AuthService struct {
	userRepo      *repository.UserRepository
	blacklist     *cache.TokenBlacklist
	jwtSecret     string
	accessExpire  time.Duration
	refreshExpire time.Duration
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     string
	TenantID string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	User         *model.User
}

func NewAuthService(userRepo *repository.UserRepository, blacklist *cache.TokenBlacklist, jwtSecret string, accessExpire, refreshExpire time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		blacklist:     blacklist,
		jwtSecret:     jwtSecret,
		accessExpire:  accessExpire,
		refreshExpire: refreshExpire,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	name := strings.TrimSpace(input.Name)
	password := input.Password

	if email == "" || !strings.Contains(email, "@") || name == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	tenantID := strings.TrimSpace(input.TenantID)
	if tenantID == "" {
		tenantID = deriveTenantID(email)
	}

	// Self-registration never grants admin; that goes through the admin API.
	role := model.RoleUser
	switch input.Role {
	case "", model.RoleUser:
	case model.RoleViewer:
		role = model.RoleViewer
	default:
		return nil, ErrInvalidInput
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		Role:         role,
		TenantID:     tenantID,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	metrics.AuthAttemptsTotal.Inc()

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		metrics.AuthFailuresTotal.Inc()
		return nil, ErrInvalidCredential
	}
	if !user.IsActive {
		metrics.AuthFailuresTotal.Inc()
		return nil, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		metrics.AuthFailuresTotal.Inc()
		return nil, ErrInvalidCredential
	}

	now := time.Now()
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a fresh token pair. The old
// refresh token is revoked so it can only be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := jwtutil.ParseToken(s.jwtSecret, refreshToken)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidCredential
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredential
	}

	if err := s.blacklist.Revoke(ctx, claims.TokenID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

// Logout revokes the presented token for its remaining lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *jwtutil.Claims) error {
	if claims == nil || claims.TokenID == "" {
		return ErrInvalidInput
	}
	return s.blacklist.Revoke(ctx, claims.TokenID, time.Until(claims.ExpiresAt.Time))
}

func (s *AuthService) GetUser(userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(userID, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	user.Name = name
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetPreferences(userID string) (*model.UserPreferences, error) {
	prefs, err := s.userRepo.GetPreferences(userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = &model.UserPreferences{UserID: userID, Theme: "system", Language: "en", Timezone: "UTC"}
	}
	return prefs, nil
}

func (s *AuthService) SavePreferences(userID string, prefs model.UserPreferences) (*model.UserPreferences, error) {
	existing, err := s.userRepo.GetPreferences(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		prefs.ID = existing.ID
	}
	prefs.UserID = userID
	if err := s.userRepo.SavePreferences(&prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (s *AuthService) issueTokens(user *model.User) (*AuthResult, error) {
	access, err := jwtutil.GenerateToken(s.jwtSecret, s.accessExpire, user.ID, user.Email, user.Role, user.TenantID)
	if err != nil {
		return nil, err
	}
	refresh, err := jwtutil.GenerateToken(s.jwtSecret, s.refreshExpire, user.ID, user.Email, user.Role, user.TenantID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessExpire.Seconds()),
		User:         user,
	}, nil
}

// deriveTenantID maps an email domain to a stable tenant identifier so
// users from the same organisation land in the same tenant.
func deriveTenantID(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "tenant-default"
	}
	domain := email[at+1:]
	domain = strings.ReplaceAll(domain, ".", "-")
	return "tenant-" + domain
}
