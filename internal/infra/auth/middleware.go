package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
)

// NewMiddleware строит UserContext до резолва любых полей и прокидывает его в контекст запроса.
// Запрос без токена идет дальше анонимно, невалидный токен — 401.
func NewMiddleware(b ContextBuilder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uc, err := b.Build(r)
			if err != nil && !errors.Is(err, ErrNoToken) {
				logger.Warn("auth failure", zap.Error(err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"errors":[{"message":"unauthorized"}]}`))
				return
			}
			if uc == nil {
				uc = domain.Anonymous()
			}

			ctx := domain.WithUserContext(r.Context(), uc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
