// Package auth issues and verifies the RS256 bearer tokens that carry a
// credential's role and username.
package auth

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultIssuer   = "scrumlords"
	DefaultValidity = 10 * 365 * 24 * time.Hour
)

// Claims holds the registered claims plus the two custom ones consumers
// authorize on.
type Claims struct {
	Role string `json:"role"`
	User string `json:"user"`
	jwt.RegisteredClaims
}

// Issuer signs tokens with the private half of the key pair.
type Issuer struct {
	key      *rsa.PrivateKey
	issuer   string
	validity time.Duration
	now      func() time.Time
}

func NewIssuer(key *rsa.PrivateKey, issuer string, validity time.Duration) *Issuer {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if validity == 0 {
		validity = DefaultValidity
	}
	return &Issuer{key: key, issuer: issuer, validity: validity, now: time.Now}
}

// Issue returns a signed token for username in role's partition.
func (i *Issuer) Issue(role models.Role, username string) (string, error) {
	if !role.Valid() {
		return "", common.ErrInvalidRole
	}
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		Role: role.String(),
		User: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
	})

	return token.SignedString(i.key)
}

// Verifier checks tokens against the public half of the key pair.
type Verifier struct {
	key    *rsa.PublicKey
	parser *jwt.Parser
}

func NewVerifier(key *rsa.PublicKey, issuer string) *Verifier {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Verifier{
		key: key,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify parses tokenString and returns its claims. Only RS256 tokens from
// the configured issuer with a known role are accepted.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := v.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if _, ok := models.ParseRole(claims.Role); !ok {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
