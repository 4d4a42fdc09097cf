// Package auth holds the bearer credential issued by the OTP login flow
// and derives the client's own identity from it.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/partyaux/partyaux/internal/domain"
)

var ErrNoIdentity = errors.New("token carries no email claim")

// Credential is the opaque bearer token the auth flow hands us. The
// server verifies it on every call; the client never checks the
// signature, it only reads its own email claim out of the payload.
type Credential struct {
	token string
	self  domain.UserID
}

func NewCredential(token string) (Credential, error) {
	self, err := identityFromToken(token)
	if err != nil {
		return Credential{}, err
	}
	return Credential{token: token, self: self}, nil
}

// Token returns the raw bearer string for request bodies.
func (c Credential) Token() string { return c.token }

// Self is the identity the host comparison runs against.
func (c Credential) Self() domain.UserID { return c.self }

func identityFromToken(token string) (domain.UserID, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		log.Debug().Str("module", "auth").Err(err).Msg("token parse failed")
		return "", err
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", ErrNoIdentity
	}
	return domain.UserID(email), nil
}
