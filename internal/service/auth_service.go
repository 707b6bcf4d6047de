package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/config"
	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/model"
	"github.com/lorenzotomasdiez/ArcAPI/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const apiKeyPrefix = "ark_"

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Profile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)

	CreateAPIKey(ctx context.Context, userID uuid.UUID, req dto.CreateAPIKeyRequest) (*dto.APIKeyCreatedResponse, error)
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]dto.APIKeyResponse, error)
	RevokeAPIKey(ctx context.Context, userID, id uuid.UUID) error
	// ResolveAPIKey maps an X-API-Key header value to its owning user.
	ResolveAPIKey(ctx context.Context, key string) (*model.User, error)
}

type authService struct {
	users repository.UserRepository
	keys  repository.APIKeyRepository
	cfg   *config.Config
}

func NewAuthService(users repository.UserRepository, keys repository.APIKeyRepository, cfg *config.Config) AuthService {
	return &authService{users: users, keys: keys, cfg: cfg}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.LoginResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Tier:         "free",
		Status:       model.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrDuplicate)
		}
		return nil, err
	}
	log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.loginResponse(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != model.UserStatusActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.loginResponse(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("refresh token invalid or expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("malformed token")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("malformed token")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, errors.New("malformed token")
	}

	user, err := s.users.FindByID(ctx, uid)
	if err != nil || user.Status != model.UserStatusActive {
		return nil, errors.New("user not found or inactive")
	}
	return s.loginResponse(user)
}

func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrNotFound
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) loginResponse(user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         userToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.User, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"tier":    user.Tier,
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ─── API keys ────────────────────────────────────────────────────────────────

func (s *authService) CreateAPIKey(ctx context.Context, userID uuid.UUID, req dto.CreateAPIKeyRequest) (*dto.APIKeyCreatedResponse, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	plaintext := apiKeyPrefix + hex.EncodeToString(raw)
	digest := sha256.Sum256([]byte(plaintext))

	key := &model.APIKey{
		UserID:    userID,
		Name:      req.Name,
		KeyDigest: hex.EncodeToString(digest[:]),
		Prefix:    plaintext[:8],
		IsActive:  true,
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Str("prefix", key.Prefix).Msg("api key created")
	return &dto.APIKeyCreatedResponse{
		ID:        key.ID.String(),
		Name:      key.Name,
		Key:       plaintext,
		Prefix:    key.Prefix,
		CreatedAt: key.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *authService) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]dto.APIKeyResponse, error) {
	keys, err := s.keys.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.APIKeyResponse, len(keys))
	for i, k := range keys {
		resp[i] = dto.APIKeyResponse{
			ID:        k.ID.String(),
			Name:      k.Name,
			Prefix:    k.Prefix,
			IsActive:  k.IsActive,
			CreatedAt: k.CreatedAt.Format(time.RFC3339),
		}
		if k.LastUsedAt != nil {
			v := k.LastUsedAt.Format(time.RFC3339)
			resp[i].LastUsedAt = &v
		}
	}
	return resp, nil
}

func (s *authService) RevokeAPIKey(ctx context.Context, userID, id uuid.UUID) error {
	return s.keys.Revoke(ctx, id, userID)
}

func (s *authService) ResolveAPIKey(ctx context.Context, key string) (*model.User, error) {
	digest := sha256.Sum256([]byte(key))
	apiKey, err := s.keys.FindByDigest(ctx, hex.EncodeToString(digest[:]))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByID(ctx, apiKey.UserID)
	if err != nil || user.Status != model.UserStatusActive {
		return nil, ErrInvalidCredentials
	}
	// Usage timestamp is best effort
	_ = s.keys.TouchLastUsed(ctx, apiKey.ID)
	return user, nil
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:     u.ID.String(),
		Email:  u.Email,
		Name:   u.Name,
		Tier:   u.Tier,
		Status: u.Status,
	}
}
