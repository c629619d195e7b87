package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/pulse-api/internal/model"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, "pulse")
	user := &model.User{ID: 42, Email: "a@pulse.org", Role: model.RoleAdmin}

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	id, _ := claims.UserID()
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "a@pulse.org", claims.Email)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, "pulse").(*jwtService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := svc.GenerateAccessToken(&model.User{ID: 1, Role: model.RolePatient})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignSecretAndGarbage(t *testing.T) {
	other := NewJWTService("other-secret", time.Hour, "pulse")
	token, _ := other.GenerateAccessToken(&model.User{ID: 1, Role: model.RolePatient})

	svc := NewJWTService("test-secret", time.Hour, "pulse")
	_, err := svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	claims := TokenClaims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "5",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", time.Hour, "pulse").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
