// Package auth provides credential sources for the chat handshake.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/ircwire/internal/irc"
)

// Static is a CredentialSource backed by fixed configuration values. It
// reports irc.ErrNoCredential when either value is missing.
type Static struct {
	Token    string
	Identity string
}

// ChatCredential implements irc.CredentialSource.
func (s Static) ChatCredential(context.Context) (irc.Credential, error) {
	if s.Token == "" || s.Identity == "" {
		return irc.Credential{}, irc.ErrNoCredential
	}
	return irc.Credential{Token: s.Token, Identity: s.Identity}, nil
}

// JWTSource extracts the identity from a JWT chat token, so deployments that
// mint service tokens do not have to configure the login name separately.
// The token is not verified locally; the chat service is the verifier and
// the client only needs the login name from the subject claim.
type JWTSource struct {
	Token string
}

// ChatCredential implements irc.CredentialSource.
func (s JWTSource) ChatCredential(context.Context) (irc.Credential, error) {
	if s.Token == "" {
		return irc.Credential{}, irc.ErrNoCredential
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return irc.Credential{}, fmt.Errorf("parse chat token: %w", err)
	}

	identity, err := claims.GetSubject()
	if err != nil || identity == "" {
		return irc.Credential{}, fmt.Errorf("chat token has no subject: %w", irc.ErrNoCredential)
	}

	return irc.Credential{Token: s.Token, Identity: identity}, nil
}
