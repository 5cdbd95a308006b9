package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrDisabled     = errors.New("token authentication disabled")
	ErrInvalidToken = errors.New("invalid token")
)

// Parser validates HS256 access tokens whose subject is a profile id.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Enabled() bool {
	return len(p.secret) > 0
}

// ProfileID returns the profile id carried in the token subject.
func (p *Parser) ProfileID(token string) (int64, error) {
	if !p.Enabled() {
		return 0, ErrDisabled
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject is not a profile id", ErrInvalidToken)
	}
	return id, nil
}

// Issue signs a token for the profile. Used by tooling and tests.
func (p *Parser) Issue(profileID int64, ttl time.Duration) (string, error) {
	if !p.Enabled() {
		return "", ErrDisabled
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(profileID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
