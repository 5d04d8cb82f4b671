// Package auth validates bearer tokens and guards routes by role.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oggyb/dating-app/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Roles decodes the role claim, which is a bare string for a single role
// and an array otherwise.
type Roles []string

func (r *Roles) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*r = Roles{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("role claim: %w", err)
	}
	*r = many
	return nil
}

// Claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	NameID   string `json:"nameid"`
	Username string `json:"unique_name"`
	Roles    Roles  `json:"role,omitempty"`
}

// UserID parses the nameid claim.
func (c *Claims) UserID() (uint64, error) {
	id, err := strconv.ParseUint(c.NameID, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// HasRole reports whether the token grants any of roles.
func (c *Claims) HasRole(roles ...string) bool {
	for _, have := range c.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// TokenService signs and validates HS512 tokens with a shared key.
type TokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenService reads the signing key and lifetime from cfg.
func NewTokenService(cfg *config.Config) (*TokenService, error) {
	if len(cfg.Auth.TokenKey) < config.MinTokenKeyLength {
		return nil, fmt.Errorf("token key must be at least %d characters", config.MinTokenKeyLength)
	}
	ttl := cfg.Auth.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenService{key: []byte(cfg.Auth.TokenKey), ttl: ttl, now: time.Now}, nil
}

// Create signs a token for the user. Tokens are normally minted by the
// identity provider; this is used by cmd/seed for local development.
func (s *TokenService) Create(userID uint64, username string, roles []string) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		NameID:   strconv.FormatUint(userID, 10),
		Username: username,
		Roles:    roles,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Validate checks signature, algorithm and expiry and returns the claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS512 {
			return nil, ErrInvalidToken
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
