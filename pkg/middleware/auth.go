package middleware

import (
	"context"
	"fmt"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const ClaimsKey contextKey = "claims"

// AdminClaims are issued by the identity provider for dashboard operators.
type AdminClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth requires an HS256 bearer token whose role claim is admin. An empty secret
// disables the check, which is only meant for local development.
func AdminAuth(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	if secret == "" {
		log.Warn("AUTH_JWT_SECRET is empty, admin authentication is disabled")
		return func(next http.Handler) http.Handler { return next }
	}
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				rejectAuth(w, log, r, apperrors.Unauthorized("Authorization token missing"), "missing bearer token")
				return
			}

			claims := &AdminClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				rejectAuth(w, log, r, apperrors.Unauthorized("Invalid or expired token"), fmt.Sprint(err))
				return
			}

			if claims.Role != model.RoleAdmin {
				rejectAuth(w, log, r, apperrors.Forbidden("Admin privileges required"), "role "+claims.Role)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims of an authenticated request.
func ClaimsFromContext(ctx context.Context) (*AdminClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*AdminClaims)
	return claims, ok
}

// IssueAdminToken signs a token accepted by AdminAuth. Used by meshwarctl and tests.
func IssueAdminToken(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		UserID: userID,
		Email:  email,
		Role:   model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func rejectAuth(w http.ResponseWriter, log *logger.Logger, r *http.Request, appErr *apperrors.AppError, reason string) {
	log.Warn("Admin authentication failed",
		"request_id", GetRequestID(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	writeAppError(w, appErr)
}
