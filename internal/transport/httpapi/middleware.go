package httpapi

import (
	"context"
	"net/http"
	"time"

	"homehub/internal/auth"
	logx "homehub/pkg/logx"
)

type contextKey string

const userInfoKey contextKey = "userInfo"

// userFrom returns the authenticated identity attached by requireLogin.
func userFrom(ctx context.Context) (auth.UserInfo, bool) {
	info, ok := ctx.Value(userInfoKey).(auth.UserInfo)
	return info, ok
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			logx.String("method", r.Method),
			logx.String("path", r.URL.Path),
			logx.String("remote", r.RemoteAddr),
			logx.Duration("took", time.Since(start)))
	})
}

// requireLogin validates the "token" header and attaches the user info.
func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("token")
		if token == "" {
			unauthorized(w)
			return
		}
		info, ok := s.auth.Verify(token)
		if !ok {
			unauthorized(w)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userInfoKey, info)))
	}
}

// requireAdmin builds on requireLogin and rejects non-admin callers.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireLogin(func(w http.ResponseWriter, r *http.Request) {
		info, _ := userFrom(r.Context())
		if !info.IsAdmin {
			fail(w, "insufficient permissions")
			return
		}
		next(w, r)
	})
}
