package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	apperrors "libris/internal/errors"
	"libris/internal/model"
)

func TestTokenService_RoundTrip(t *testing.T) {
	tokens := NewTokenService("signing-secret", "encryption-secret")
	userID := uuid.New()

	token, err := tokens.Issue(userID, model.RoleAdmin)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := tokens.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(TokenExpiry), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenService_OpaqueWithoutEncryptionKey(t *testing.T) {
	tokens := NewTokenService("signing-secret", "encryption-secret")
	token, err := tokens.Issue(uuid.New(), model.RoleMember)
	assert.NoError(t, err)

	// The envelope hides the compact three-segment form entirely.
	assert.NotContains(t, token, ".")
}

func TestTokenService_Verify_Failures(t *testing.T) {
	tokens := NewTokenService("signing-secret", "encryption-secret")
	userID := uuid.New()

	valid, err := tokens.Issue(userID, model.RoleMember)
	assert.NoError(t, err)

	t.Run("garbage input", func(t *testing.T) {
		_, err := tokens.Verify("not-a-token")
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := tokens.Verify("")
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		tampered := []byte(valid)
		tampered[len(tampered)-1] ^= 1
		_, err := tokens.Verify(string(tampered))
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("wrong encryption key", func(t *testing.T) {
		other := NewTokenService("signing-secret", "different-encryption-secret")
		_, err := other.Verify(valid)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("wrong signing secret", func(t *testing.T) {
		// Same envelope key, different signer: decryption succeeds but the
		// inner signature check must still fail.
		other := NewTokenService("different-signing-secret", "encryption-secret")
		_, err := other.Verify(valid)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}

func TestTokenService_Verify_Expired(t *testing.T) {
	tokens := NewTokenService("signing-secret", "encryption-secret")

	past := time.Now().Add(-time.Hour)
	claims := &Claims{
		UserID: uuid.New(),
		Role:   model.RoleMember,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past),
			IssuedAt:  jwt.NewNumericDate(past.Add(-TokenExpiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tokens.signingSecret)
	assert.NoError(t, err)
	expired, err := tokens.encrypt([]byte(signed))
	assert.NoError(t, err)

	_, err = tokens.Verify(expired)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_Verify_InvalidRole(t *testing.T) {
	tokens := NewTokenService("signing-secret", "encryption-secret")

	claims := &Claims{
		UserID: uuid.New(),
		Role:   "Superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExpiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tokens.signingSecret)
	assert.NoError(t, err)
	token, err := tokens.encrypt([]byte(signed))
	assert.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
