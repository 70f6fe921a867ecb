package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewVerifier("secret", "listsync")

	token, err := v.Issue("alice", time.Hour)
	require.NoError(t, err)

	userID, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
}

func TestIssueRequiresUser(t *testing.T) {
	_, err := NewVerifier("secret", "").Issue("", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("secret", "listsync")
	good, err := v.Issue("alice", time.Hour)
	require.NoError(t, err)

	otherKey, err := NewVerifier("other", "listsync").Issue("alice", time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewVerifier("secret", "someone-else").Issue("alice", time.Hour)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Issuer: "listsync"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice", Issuer: "listsync"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", good + "x"},
		{"wrong key", otherKey},
		{"wrong issuer", otherIssuer},
		{"no subject", noSubject},
		{"unsigned", unsigned},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	v := NewVerifier("secret", "")
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := v.Issue("alice", time.Hour)
	require.NoError(t, err)

	v.now = time.Now
	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
