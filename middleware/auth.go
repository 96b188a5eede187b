package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ingatatech/loan-management-system-backend/utils"
)

type contextKey string

const (
	ContextUserID         contextKey = "user_id"
	ContextEmail          contextKey = "email"
	ContextOrganizationID contextKey = "organization_id"
	ContextRole           contextKey = "role"
)

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs request and response information
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &LoggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(lrw, r)

		utils.LogInfo("Method: %s, Path: %s, Status: %d, Duration: %v",
			r.Method,
			r.URL.Path,
			lrw.statusCode,
			time.Since(start),
		)
	})
}

// AuthMiddleware validates the JWT token and places the user's identity and
// tenant into the request context. Every downstream handler reads the
// organization id from the token, never from the request body.
func AuthMiddleware(jwtKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
				tokenString = tokenString[7:]
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return jwtKey, nil
			})

			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			userID, ok := claims["user_id"].(float64)
			if !ok {
				http.Error(w, "Invalid user_id in token", http.StatusUnauthorized)
				return
			}
			organizationID, ok := claims["organization_id"].(float64)
			if !ok {
				http.Error(w, "Invalid organization_id in token", http.StatusUnauthorized)
				return
			}
			email, _ := claims["email"].(string)
			role, _ := claims["role"].(string)

			r.Header.Set("X-User-ID", strconv.FormatUint(uint64(userID), 10))

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextUserID, uint(userID))
			ctx = context.WithValue(ctx, ContextEmail, email)
			ctx = context.WithValue(ctx, ContextOrganizationID, uint(organizationID))
			ctx = context.WithValue(ctx, ContextRole, role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts the authenticated user's id and tenant
func GetUserFromContext(r *http.Request) (userID uint, organizationID uint, err error) {
	userID, ok := r.Context().Value(ContextUserID).(uint)
	if !ok {
		return 0, 0, fmt.Errorf("user_id not found in context")
	}

	organizationID, ok = r.Context().Value(ContextOrganizationID).(uint)
	if !ok {
		return 0, 0, fmt.Errorf("organization_id not found in context")
	}

	return userID, organizationID, nil
}
