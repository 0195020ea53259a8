// Package auth issues and verifies the HS256 access tokens handed to
// clients. The token jti names the refresh session held in Redis.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

var (
	errNoUser      = errors.New("token has no user")
	errBadRole     = errors.New("token role is not recognised")
	errSubjectDiff = errors.New("token subject does not match user")
)

// AccessTokenPayload is what a caller supplies to mint a token. An empty
// JTI gets a random one.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	JTI    string
}

type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks during parsing.
func (c AccessTokenClaims) Validate() error {
	switch {
	case c.UserID == uuid.Nil:
		return errNoUser
	case !c.Role.IsValid():
		return errBadRole
	case c.Subject != "" && c.Subject != c.UserID.String():
		return errSubjectDiff
	}
	return nil
}
