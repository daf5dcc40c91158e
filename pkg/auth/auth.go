package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 14
	tokenTTL   = 24 * time.Hour
)

var jwtAlgorithm = jwt.SigningMethodHS256

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidKeyFormat = errors.New("invalid key format")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Claims represents the JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator signs admin tokens and client API keys.
type Authenticator struct {
	jwtSecret []byte
	apiSecret []byte
	now       func() time.Time
}

// New creates an authenticator from the JWT secret and the API master secret.
func New(jwtSecret, apiSecret string) *Authenticator {
	return &Authenticator{
		jwtSecret: []byte(jwtSecret),
		apiSecret: []byte(apiSecret),
		now:       time.Now,
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for an admin
func (a *Authenticator) CreateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(a.now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(a.now()),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.jwtSecret)
}

// VerifyToken verifies a JWT token
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, ErrInvalidToken
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func (a *Authenticator) GenerateHMACKey(clientID string) string {
	return clientID + "." + a.sign(clientID)
}

// VerifyHMACKey validates an HMAC-signed API key and returns its client id
func (a *Authenticator) VerifyHMACKey(key string) (string, error) {
	clientID, provided, ok := strings.Cut(key, ".")
	if !ok || clientID == "" || strings.Contains(provided, ".") {
		return "", ErrInvalidKeyFormat
	}

	// constant-time comparison
	if !hmac.Equal([]byte(provided), []byte(a.sign(clientID))) {
		return "", ErrInvalidSignature
	}
	return clientID, nil
}

func (a *Authenticator) sign(clientID string) string {
	h := hmac.New(sha256.New, a.apiSecret)
	h.Write([]byte(clientID))
	return hex.EncodeToString(h.Sum(nil))
}

// AdminStore is the part of the database the admin bootstrap needs.
type AdminStore interface {
	CountMasterUsers(ctx context.Context) (int64, error)
	CreateMasterUser(ctx context.Context, username, passwordHash string) error
}

// EnsureAdminExists creates the first admin account when none exists.
// It reports whether an account was created.
func EnsureAdminExists(ctx context.Context, store AdminStore, username, password string) (bool, error) {
	count, err := store.CountMasterUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	if err := store.CreateMasterUser(ctx, username, hash); err != nil {
		return false, err
	}
	return true, nil
}
