package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/pledge-points-api/internal/models"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

// AuthConfig configures verification of platform-issued identity tokens.
type AuthConfig struct {
	TokenSecret string
	Issuer      string
	// Leeway tolerates clock drift between the platform adapter and this service.
	Leeway time.Duration
}

// AuthService verifies the identity tokens minted by the chat platform adapter. Users and roles
// are owned by the platform; this service only checks the signature and extracts the actor.
type AuthService struct {
	logger *zap.Logger
	config AuthConfig
	now    func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{logger: logger, config: config, now: time.Now}
}

// ValidateToken parses and validates a platform token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.PlatformClaims, error) {
	if strings.TrimSpace(s.config.TokenSecret) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "platform token secret not configured")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.config.Leeway),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.PlatformClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	}, opts...)
	if err != nil {
		s.logger.Debug("rejected platform token", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.PlatformClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token subject missing")
	}
	return claims, nil
}

// IssueToken signs a token for actor valid for ttl. The platform adapter holds the same secret
// and normally mints these itself.
func (s *AuthService) IssueToken(actor models.Actor, ttl time.Duration) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(ttl)
	claims := &models.PlatformClaims{
		Name:  actor.DisplayName,
		Roles: append([]string(nil), actor.Roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   actor.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
