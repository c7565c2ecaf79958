package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const unsubscribePurpose = "unsubscribe"

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenIssuer signs and verifies the HS256 links embedded in reminder emails.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", key, nil),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (i *TokenIssuer) GenerateUnsubscribeToken(studentID string) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":     studentID,
		"purpose": unsubscribePurpose,
		"exp":     now.Add(i.ttl).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := i.auth.Encode(claims)
	return tokenString, err
}

// ParseUnsubscribeToken returns the student id carried by a valid unsubscribe token.
func (i *TokenIssuer) ParseUnsubscribeToken(tokenString string) (string, error) {
	token, err := jwtauth.VerifyToken(i.auth, tokenString)
	if err != nil {
		return "", ErrInvalidToken
	}
	purpose, ok := token.Get("purpose")
	if !ok || purpose != unsubscribePurpose {
		return "", ErrInvalidToken
	}
	if token.Subject() == "" {
		return "", ErrInvalidToken
	}
	return token.Subject(), nil
}
