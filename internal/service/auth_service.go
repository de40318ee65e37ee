package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/user"
	rep "syncdeck/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	MsgIncorrectCredentials = "Incorrect username or password"
	MsgMFARequired          = "MFA_REQUIRED"
	MsgInvalidMFACode       = "Invalid MFA code"
	MsgInvalidToken         = "Could not validate credentials"
)

type AuthSettings struct {
	Secret     string
	TokenTTL   time.Duration
	Issuer     string
	MFAIssuer  string
	BcryptCost int
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type MFASetup struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

// PasswordHasher - обёртка над bcrypt с настраиваемой стоимостью
type PasswordHasher struct {
	Cost int
}

func (h PasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("хеширование пароля: %w", err)
	}
	return string(hash), nil
}

func (h PasswordHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type AuthService struct {
	users    UserRepository
	settings AuthSettings
	hasher   PasswordHasher
	now      func() time.Time
}

func NewAuthService(users UserRepository, settings AuthSettings) *AuthService {
	if settings.MFAIssuer == "" {
		settings.MFAIssuer = "SyncDeck"
	}
	if settings.TokenTTL == 0 {
		settings.TokenTTL = 30 * time.Minute
	}
	return &AuthService{
		users:    users,
		settings: settings,
		hasher:   PasswordHasher{Cost: settings.BcryptCost},
		now:      time.Now,
	}
}

func (s *AuthService) Hasher() PasswordHasher {
	return s.hasher
}

// Login проверяет пароль и, если у пользователя включена MFA, код TOTP
func (s *AuthService) Login(ctx context.Context, username, password, mfaCode string) (*Token, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Вход с неизвестным именем", zap.String("username", username))
			return nil, NewUnauthorized(MsgIncorrectCredentials)
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if !s.hasher.Verify(u.HashedPassword, password) {
		logger.Info("Service: Неверный пароль", zap.String("username", username))
		return nil, NewUnauthorized(MsgIncorrectCredentials)
	}

	if u.MFAEnabled() {
		if mfaCode == "" {
			return nil, NewBusinessError(CodeMFARequired, MsgMFARequired)
		}
		if !totp.Validate(mfaCode, u.MFASecret) {
			logger.Info("Service: Неверный код MFA", zap.String("username", username))
			return nil, NewUnauthorized(MsgInvalidMFACode)
		}
	}

	token, err := s.issue(u)
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Пользователь вошёл", zap.String("user_id", u.ID.String()))
	return &Token{AccessToken: token, TokenType: "bearer"}, nil
}

func (s *AuthService) issue(u *user.User) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		Issuer:    s.settings.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.settings.TokenTTL)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.settings.Secret))
	if err != nil {
		return "", fmt.Errorf("подпись токена: %w", err)
	}
	return signed, nil
}

// Authenticate разбирает bearer-токен и загружает актуального пользователя
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*user.User, error) {
	claims := &jwt.RegisteredClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.settings.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.settings.Issuer))
	}

	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(s.settings.Secret), nil
	}, opts...)
	if err != nil {
		logger.Info("Service: Токен отклонён", zap.Error(err))
		return nil, NewUnauthorized(MsgInvalidToken)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, NewUnauthorized(MsgInvalidToken)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewUnauthorized(MsgInvalidToken)
		}
		return nil, fmt.Errorf("загрузка пользователя: %w", err)
	}
	return u, nil
}

// SetupMFA генерирует секрет; он сохраняется только после EnableMFA
func (s *AuthService) SetupMFA(ctx context.Context, current *user.User) (*MFASetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.settings.MFAIssuer,
		AccountName: current.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("генерация секрета MFA: %w", err)
	}
	return &MFASetup{Secret: key.Secret(), URI: key.URL()}, nil
}

func (s *AuthService) EnableMFA(ctx context.Context, current *user.User, secret, code string) error {
	if secret == "" || !totp.Validate(code, secret) {
		return NewBadRequest("Invalid code")
	}

	current.MFASecret = secret
	if err := s.users.Update(ctx, current); err != nil {
		return fmt.Errorf("сохранение секрета MFA: %w", err)
	}

	logger.Info("Service: MFA включена", zap.String("user_id", current.ID.String()))
	return nil
}
