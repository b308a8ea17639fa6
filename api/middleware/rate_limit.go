package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bolekahq/boleka-backend/api/responses"
	"github.com/bolekahq/boleka-backend/pkg/config"
	pkgerrors "github.com/bolekahq/boleka-backend/pkg/errors"
	"github.com/bolekahq/boleka-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// WalletRateLimit caps mutating wallet calls per user per window. Runs after
// Auth so the counter keys off the resolved user id.
func WalletRateLimit(cfg config.RateLimitConfig, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || cfg.WalletWindow <= 0 || cfg.WalletMutationLimit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := UserIDFromContext(ctx)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			scope := fmt.Sprintf("wallet:mutations:%s", userID)
			allowed, count, err := store.FixedWindowAllow(ctx, scope, cfg.WalletMutationLimit, cfg.WalletWindow)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"attempts":       count,
						"limit":          cfg.WalletMutationLimit,
						"window_seconds": int(cfg.WalletWindow.Seconds()),
					})
					logg.Warn(logCtx, "wallet.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
