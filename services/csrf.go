package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// CSRF mints and checks the anti-forgery tokens handed to the browser in
// the XSRF-TOKEN cookie. Tokens are signed and expiring, so a stolen value
// goes stale; the double-submit check itself happens in the middleware.
type CSRF struct {
	secret []byte
	ttl    time.Duration
}

func NewCSRF(secret string) *CSRF {
	return &CSRF{secret: []byte(secret), ttl: 12 * time.Hour}
}

func (c *CSRF) Token() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(c.ttl).Unix(),
	})
	return token.SignedString(c.secret)
}

func (c *CSRF) Verify(tokenString string) bool {
	if tokenString == "" {
		return false
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	return err == nil && token.Valid
}
