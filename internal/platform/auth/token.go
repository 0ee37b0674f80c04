package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Portal roles.
const (
	RolePatient = "patient"
	RoleAdmin   = "admin"
)

type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

type JWTConfig struct {
	Issuer     string
	Audience   string
	SigningKey []byte
	TTL        time.Duration

	// Revocations, when set, is consulted by JWTMiddleware.
	Revocations RevocationStore
}

// Token is what the login endpoint returns.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Issuer signs access tokens for authenticated accounts.
type Issuer struct {
	cfg JWTConfig
	now func() time.Time
}

func NewIssuer(cfg JWTConfig) *Issuer {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Issuer{cfg: cfg, now: time.Now}
}

// Issue signs an HS256 token for subject with the given roles.
func (i *Issuer) Issue(subject string, roles ...string) (Token, error) {
	if subject == "" {
		return Token{}, fmt.Errorf("subject is required")
	}
	now := i.now().UTC()
	exp := now.Add(i.cfg.TTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Roles: roles,
	}
	if i.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{i.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.SigningKey)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: exp}, nil
}
