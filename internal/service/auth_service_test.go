package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pledge-points-api/internal/models"
	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{TokenSecret: "platform-secret", Issuer: "pledge-bot"})
	actor := models.Actor{UserID: "1234", DisplayName: "Sam", Roles: []string{"Brother", "VP Internal"}}

	token, expires, err := svc.IssueToken(actor, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	got := claims.Actor()
	assert.Equal(t, "1234", got.UserID)
	assert.Equal(t, "Sam", got.DisplayName)
	assert.True(t, got.HasRole("VP Internal"))
	assert.False(t, got.HasRole("vp internal"))
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{TokenSecret: "platform-secret"})
	other := NewAuthService(nil, AuthConfig{TokenSecret: "other-secret"})
	actor := models.Actor{UserID: "1", Roles: []string{"Brother"}}

	forged, _, err := other.IssueToken(actor, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	require.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized.Code))

	expired, _, err := svc.IssueToken(actor, -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	require.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized.Code))

	_, err = svc.ValidateToken("not-a-token")
	require.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized.Code))
}

func TestAuthServiceRejectsOtherAlgorithms(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{TokenSecret: "platform-secret"})
	claims := &models.PlatformClaims{Roles: []string{"Brother"}, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("platform-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestAuthServiceRequiresSubjectAndSecret(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{TokenSecret: "platform-secret"})
	token, _, err := svc.IssueToken(models.Actor{Roles: []string{"Brother"}}, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized.Code))

	unconfigured := NewAuthService(nil, AuthConfig{})
	_, err = unconfigured.ValidateToken(token)
	require.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized.Code))
}
