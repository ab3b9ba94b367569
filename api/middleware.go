package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	customerror "github.com/ukane-philemon/studentmarks/internal/errors"
	"github.com/ukane-philemon/studentmarks/internal/jwt"
	"go.uber.org/zap"
)

const jwtHeader = "STUDENTMARKS-Authentication-Token"

type ctxKey string

const adminCtxKey ctxKey = "admin"

// AuthMiddleware ensures the the correct and valid auth token is provided in
// this request. Requests without a token pass through unauthenticated.
func AuthMiddleware(jwtManager *jwt.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			authToken := req.Header.Get(jwtHeader)
			if authToken == "" {
				next.ServeHTTP(res, req)
				return
			}

			adminUsername, validToken := jwtManager.IsValidToken(authToken)
			if !validToken {
				writeError(res, http.StatusForbidden, &customerror.ErrorUnauthorized{})
				return
			}

			// Set the adminCtxKey for use by subsequent handlers.
			req = req.WithContext(context.WithValue(req.Context(), adminCtxKey, adminUsername))
			next.ServeHTTP(res, req)
		})
	}
}

// requireAdmin rejects requests that were not authenticated by
// AuthMiddleware.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if !reqAuthenticated(req.Context()) {
			writeError(res, http.StatusUnauthorized, &customerror.ErrorUnauthorized{})
			return
		}
		next.ServeHTTP(res, req)
	})
}

// reqAuthenticated checks that the request is authenticated.
func reqAuthenticated(ctx context.Context) bool {
	adminUsername, ok := ctx.Value(adminCtxKey).(string)
	return ok && adminUsername != ""
}

// requestLogger logs every served request.
func requestLogger(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(res, req.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("Request served",
					zap.String("request_id", middleware.GetReqID(req.Context())),
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)))
			}()

			next.ServeHTTP(ww, req)
		})
	}
}
