package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_SignIn(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.store.Users(), "test-secret", time.Hour)

	token, user, err := auth.SignIn(context.Background(), "misty@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, f.seller.ID, user.ID)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, strconv.FormatInt(f.seller.ID, 10), claims["sub"])
	assert.Equal(t, "seller", claims["role"])
}

func TestAuthService_SignIn_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.store.Users(), "test-secret", time.Hour)

	_, _, err := auth.SignIn(context.Background(), "misty@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.SignIn(context.Background(), "nobody@example.com", "pw")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
