package middleware

import (
	"net"
	"net/http"
	"strings"

	"ontology-backend/pkg/auth"
	"ontology-backend/pkg/common"
	apperrors "ontology-backend/pkg/errors"

	"go.uber.org/zap"
)

// Authenticate requires a valid HS256 bearer token and stores the caller's id
// and roles in the request context.
func Authenticate(validator *auth.JWTValidator, errs *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				errs.Handle(w, r, apperrors.NewUnauthorizedError("Missing authorization header"))
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				errs.Handle(w, r, apperrors.NewUnauthorizedError("Invalid authorization header format"))
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.Debug("Rejected bearer token", zap.Error(err))
				errs.Handle(w, r, apperrors.NewUnauthorizedError("Invalid or expired token"))
				return
			}

			ctx := common.WithIdentity(r.Context(), common.Identity{
				UserID: claims.UserID(),
				Roles:  claims.Roles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers without role. It must run after Authenticate.
func RequireRole(role string, errs *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := common.IdentityFrom(r.Context())
			if !ok {
				errs.Handle(w, r, apperrors.NewUnauthorizedError(""))
				return
			}
			if !id.HasRole(role) {
				logger.Info("Rejected write without role",
					zap.String("userId", id.UserID),
					zap.String("role", role),
					zap.String("path", r.URL.Path),
				)
				errs.Handle(w, r, apperrors.NewMissingRole(role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects clients that exceed the limiter with 429.
func RateLimit(limiter *auth.IPRateLimiter, errs *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				errs.Handle(w, r, err)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				errs.Handle(w, r, apperrors.NewRateLimitError(limiter.Limit(), "minute"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP reads RemoteAddr, which chi's RealIP middleware has already
// rewritten from the forwarding headers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
