package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access token payload for album owners.
type JWTClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
