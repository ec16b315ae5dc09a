package models

import "github.com/golang-jwt/jwt/v5"

// Actor is the chat platform user on whose behalf a request runs.
type Actor struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
}

// HasRole reports whether the actor holds the named role (exact match).
func (a *Actor) HasRole(role string) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PlatformClaims is the JWT payload minted by the platform adapter.
type PlatformClaims struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Actor converts the claims into an Actor.
func (c *PlatformClaims) Actor() *Actor {
	return &Actor{UserID: c.Subject, DisplayName: c.Name, Roles: append([]string(nil), c.Roles...)}
}
