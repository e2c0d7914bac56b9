// Package auth provides authentication support for wallet holders. A caller
// proves control of an address by signing a server issued challenge with
// their wallet; a verified signature is exchanged for a bearer token.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dermacoin/platform/foundation/signature"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Set of known roles carried in the token claims.
const (
	RoleDonor   = "donor"
	RoleCharity = "charity"
	RoleAdmin   = "admin"
)

// Set of error variables for the authentication flow.
var (
	ErrUnknownChallenge = errors.New("unknown or expired challenge")
	ErrBadSignature     = errors.New("signature does not match the address")
	ErrInvalidToken     = errors.New("invalid token")
)

// Claims represents the authorization claims carried in a bearer token.
type Claims struct {
	jwt.RegisteredClaims
	Address string `json:"address"`
	Role    string `json:"role"`
}

// Config represents the settings required to construct an Auth.
type Config struct {
	Secret       string
	TokenTTL     time.Duration
	ChallengeTTL time.Duration
}

// Auth issues and validates bearer tokens for wallet holders.
type Auth struct {
	secret       []byte
	tokenTTL     time.Duration
	challengeTTL time.Duration
	method       jwt.SigningMethod
	parser       *jwt.Parser

	mu         sync.Mutex
	challenges map[string]challenge
}

type challenge struct {
	address string
	expires time.Time
}

// New constructs an Auth for issuing challenges and tokens.
func New(cfg Config) (*Auth, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth secret not configured")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}

	a := Auth{
		secret:       []byte(cfg.Secret),
		tokenTTL:     cfg.TokenTTL,
		challengeTTL: cfg.ChallengeTTL,
		method:       jwt.SigningMethodHS256,
		parser:       jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
		challenges:   make(map[string]challenge),
	}

	return &a, nil
}

// Challenge issues a one time message for the address to sign. The message
// embeds a nonce so a captured signature can't be replayed.
func (a *Auth) Challenge(address string) string {
	message := fmt.Sprintf("Sign in to the DermaCoin charity platform: %s", uuid.NewString())

	a.mu.Lock()
	defer a.mu.Unlock()

	a.prune()
	a.challenges[message] = challenge{
		address: address,
		expires: time.Now().Add(a.challengeTTL),
	}

	return message
}

// Login verifies the signature over a previously issued challenge and
// issues a bearer token for the address. The challenge is consumed whether
// or not the signature verifies, and is only honored for the address it
// was issued to.
func (a *Auth) Login(message string, sig string, address string, role string) (string, error) {
	a.mu.Lock()
	ch, exists := a.challenges[message]
	delete(a.challenges, message)
	a.mu.Unlock()

	if !exists || time.Now().After(ch.expires) {
		return "", ErrUnknownChallenge
	}

	if !strings.EqualFold(ch.address, address) {
		return "", ErrUnknownChallenge
	}

	if !signature.Verify(message, sig, address) {
		return "", ErrBadSignature
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
		},
		Address: address,
		Role:    role,
	}

	token, err := jwt.NewWithClaims(a.method, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return token, nil
}

// ValidateToken parses and validates a bearer token, returning its claims.
func (a *Auth) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := a.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// prune drops expired challenges. Callers must hold the lock.
func (a *Auth) prune() {
	now := time.Now()
	for message, ch := range a.challenges {
		if now.After(ch.expires) {
			delete(a.challenges, message)
		}
	}
}
