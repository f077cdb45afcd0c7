package auth

import "github.com/golang-jwt/jwt/v5"

// AccessClaims are the claims carried by an access token. Subject holds the
// decimal user ID.
type AccessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
