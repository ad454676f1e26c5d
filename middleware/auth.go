package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"homestead/pkg/logger"
	"homestead/pkg/response"
)

type contextKey string

const ViewerKey contextKey = "viewer"

var errNoSecret = errors.New("server is not configured to validate JWTs")

// ViewerFrom returns the authenticated viewer's email, or "" for anonymous
// requests.
func ViewerFrom(ctx context.Context) string {
	viewer, _ := ctx.Value(ViewerKey).(string)
	return viewer
}

func WithViewer(ctx context.Context, viewer string) context.Context {
	return context.WithValue(ctx, ViewerKey, viewer)
}

// Identity resolves the viewer from a bearer token when one is present.
// Requests without a token continue anonymously; a token that fails
// validation is rejected.
func Identity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			viewer, err := parseViewer(tokenString, secret)
			if err != nil {
				logger.Sugar.Warnf("Invalid token: %v", err)
				response.Error(w, http.StatusUnauthorized, "Unauthorized: Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

func parseViewer(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if secret == "" {
			return nil, errNoSecret
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("could not parse token claims")
	}
	email, ok := claims["email"].(string)
	if !ok || strings.TrimSpace(email) == "" {
		return "", errors.New("email claim is missing or invalid")
	}
	return strings.TrimSpace(email), nil
}
