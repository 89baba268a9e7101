package jwttoken

import (
	authmw "podium/pkg/platform/middleware/auth"
)

// JWTServiceAdapter lets RequireCaller validate tokens without importing
// golang-jwt. Only the caller identity and token id cross the boundary.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{Caller: claims.Caller(), JTI: claims.ID}, nil
}
