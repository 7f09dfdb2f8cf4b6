package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/example/order-backend/internal/apperror"
	"github.com/example/order-backend/internal/auth"
)

// ExtractToken extracts JWT token from cookie or Authorization header
func ExtractToken(req *Request) string {
	// Try cookie first (for browser)
	cookieReq := http.Request{Header: req.Headers}
	if cookie, err := cookieReq.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	if authHeader := req.Headers.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// Auth requires a valid bearer token and stores its claims in req.Claims.
func Auth(jwtService *auth.JWTService) Stage {
	return StageFunc(func(ctx context.Context, req *Request, next Handler) (*Response, error) {
		tokenString := ExtractToken(req)
		if tokenString == "" {
			return nil, apperror.Unauthorized("Authentication required")
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperror.Unauthorized("Token has expired")
		}
		if err != nil {
			return nil, apperror.Unauthorized("Invalid token")
		}

		req.Claims = claims
		return next(ctx, req)
	})
}

// RequireRole checks if the caller has one of the required roles
func RequireRole(roles ...string) Stage {
	return StageFunc(func(ctx context.Context, req *Request, next Handler) (*Response, error) {
		if req.Claims == nil {
			return nil, apperror.Unauthorized("Authentication required")
		}
		for _, role := range roles {
			if req.Claims.Role == role {
				return next(ctx, req)
			}
		}
		return nil, apperror.Forbidden("Insufficient permissions")
	})
}
