// internal/services/auth_service_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artmarket-backend/internal/config"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	cfg := &config.Config{JWT: config.JWTConfig{AccessTokenTTL: 1}}
	return NewAuthService(newTestDB(t), cfg)
}

func TestRegisterLoginVerifyRoundTrip(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{
		Username: "JollyGuru",
		Email:    "Jolly@Guru.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "jolly@guru.com", registered.User.Email)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.Equal(t, 3600, registered.ExpiresIn)

	login, err := svc.Login(ctx, &LoginRequest{Username: "JollyGuru", Password: "secret123"})
	require.NoError(t, err)

	claims, err := svc.VerifyToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID.String(), claims.UserID)
	assert.Equal(t, "JollyGuru", claims.Username)
}

func TestRegisterRejectsTakenIdentity(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "SunnyScribe", Email: "sunny@scribe.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterRequest{Username: "SunnyScribe", Email: "other@scribe.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "username already taken")

	_, err = svc.Register(ctx, &RegisterRequest{Username: "OtherScribe", Email: "sunny@scribe.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "email already registered")
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Register(context.Background(), &RegisterRequest{Username: "ab", Email: "not-an-email", Password: "123"})
	require.ErrorIs(t, err, ErrValidation)

	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	fields := make(map[string]bool)
	for _, detail := range serviceErr.Details {
		fields[detail.Field] = true
	}
	assert.True(t, fields["username"])
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "RadiantComet", Email: "radiant@comet.com", Password: "secret123"})
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, &LoginRequest{Username: "Nobody", Password: "secret123"})
	_, mismatchErr := svc.Login(ctx, &LoginRequest{Username: "RadiantComet", Password: "wrong-password"})

	require.ErrorIs(t, unknownErr, ErrAuthentication)
	require.ErrorIs(t, mismatchErr, ErrAuthentication)
	assert.Equal(t, unknownErr.Error(), mismatchErr.Error())

	var unknown, mismatch *ServiceError
	require.True(t, errors.As(unknownErr, &unknown))
	require.True(t, errors.As(mismatchErr, &mismatch))
	assert.Equal(t, ReasonUnknownUser, unknown.Reason)
	assert.Equal(t, ReasonPasswordMismatch, mismatch.Reason)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, utils.ErrInvalidToken)
}
