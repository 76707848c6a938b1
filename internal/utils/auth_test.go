package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/stockmaster/internal/models"
)

func TestPasswordHashing(t *testing.T) {
	password := "secret123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.True(t, CheckPasswordHash(password, hash))
	assert.False(t, CheckPasswordHash("wrongpassword", hash))
}

func TestJWT(t *testing.T) {
	secret := "test-secret-key-12345"
	user := &models.UserAuth{
		ID:    "owner@shop.in",
		Email: "owner@shop.in",
		Role:  "admin",
	}

	accessToken, refreshToken, err := GenerateTokens(user, secret)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)

	claims, err := ValidateToken(accessToken, secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, ClaimString(claims, "id"))
	assert.Equal(t, user.Email, ClaimString(claims, "email"))
	assert.Equal(t, TokenAccess, ClaimString(claims, "typ"))
	assert.NotEmpty(t, ClaimString(claims, "jti"))

	refresh, err := ValidateToken(refreshToken, secret)
	require.NoError(t, err)
	assert.Equal(t, TokenRefresh, ClaimString(refresh, "typ"))

	_, err = ValidateToken(accessToken, "wrong-key")
	assert.Error(t, err)
}

func TestValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.Error(t, err)
}

func TestClaimString(t *testing.T) {
	claims := jwt.MapClaims{"email": "a@b.c", "exp": 12.0}
	assert.Equal(t, "a@b.c", ClaimString(claims, "email"))
	assert.Equal(t, "", ClaimString(claims, "exp"))
	assert.Equal(t, "", ClaimString(claims, "missing"))
}
