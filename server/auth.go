package server

import (
	"context"
	"net/http"
	"strings"

	"libexport/core/auth"
)

type subjectKey struct{}

// authMiddleware 校验 Bearer token。浏览器的 websocket 无法设置请求头，因此也接受 ?token=
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	if s.opts.JWTSecret == "" {
		return next
	}
	secret := []byte(s.opts.JWTSecret)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}
			token = parts[1]
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		claims, err := auth.ParseToken(secret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SubjectFromContext 返回 token 中的 subject
func SubjectFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectKey{}).(string)
	return sub, ok
}
