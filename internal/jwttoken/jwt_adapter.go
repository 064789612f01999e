package jwttoken

import (
	"sigil/internal/platform/middleware"
)

// ToMiddlewareClaims converts token claims into the principal shape the
// auth middleware stores on the request context.
func ToMiddlewareClaims(claims *Claims) (*middleware.Claims, error) {
	accountID, err := AccountID(claims)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{
		AccountID: accountID,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}

// MiddlewareAdapter exposes the token service through the middleware's
// TokenVerifier interface.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) Verify(tokenString string) (*middleware.Claims, error) {
	claims, err := a.service.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}
