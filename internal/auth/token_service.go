package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "libris/internal/errors"
	"libris/internal/model"
)

// TokenExpiry is the duration for which issued tokens are valid.
const TokenExpiry = 7 * 24 * time.Hour

// Claims represents the signed token payload.
type Claims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies envelope-encrypted identity tokens.
// Tokens are HS256-signed, then the signed compact form is AES-GCM
// encrypted so holders without the encryption key cannot introspect the
// payload. Verify reverses both layers; any failure along the way is
// reported uniformly as an invalid token.
type TokenService struct {
	signingSecret []byte
	encryptionKey [32]byte
}

// NewTokenService creates a token service from the configured signing and
// encryption secrets. The encryption key is derived by hashing so any
// secret length works with AES-256.
func NewTokenService(signingSecret, encryptionSecret string) *TokenService {
	return &TokenService{
		signingSecret: []byte(signingSecret),
		encryptionKey: sha256.Sum256([]byte(encryptionSecret)),
	}
}

// Issue produces an encrypted token for the given user identity.
func (s *TokenService) Issue(userID uuid.UUID, role model.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingSecret)
	if err != nil {
		return "", err
	}
	return s.encrypt([]byte(signed))
}

// Verify decrypts the envelope and validates the inner signature and expiry.
// Every failure mode resolves to ErrInvalidToken so callers treat the holder
// as unauthenticated rather than crashing.
func (s *TokenService) Verify(encrypted string) (*Claims, error) {
	plaintext, err := s.decrypt(encrypted)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(string(plaintext), &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidToken
		}
		return s.signingSecret, nil
	})
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *TokenService) decrypt(encoded string) ([]byte, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(s.encryptionKey[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, apperrors.ErrInvalidToken
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
