package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 10)
	staff := domain.StaffMember{ID: "1234", DisplayName: "Alice", AvatarRef: "https://cdn.example/a.png"}

	token, expiresAt, err := tm.GenerateToken(staff)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, staff, claims.StaffMember())
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", 10)

	_, _, err := tm.GenerateToken(domain.StaffMember{})
	assert.Error(t, err)

	token, _, err := NewTokenManager("other", 10).GenerateToken(domain.StaffMember{ID: "1"})
	require.NoError(t, err)
	_, err = tm.ParseToken(token)
	assert.Error(t, err, "signed with a different secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = tm.ParseToken(signed)
	assert.Error(t, err)
}

func TestClaims_StaffMemberFallsBackToSubject(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}}
	assert.Equal(t, "42", claims.StaffMember().DisplayName)
}
