package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bolekahq/boleka-backend/api/controllers"
	walletcontrollers "github.com/bolekahq/boleka-backend/api/controllers/wallet"
	"github.com/bolekahq/boleka-backend/api/middleware"
	walletsvc "github.com/bolekahq/boleka-backend/internal/wallet"
	"github.com/bolekahq/boleka-backend/pkg/config"
	"github.com/bolekahq/boleka-backend/pkg/logger"
	"github.com/bolekahq/boleka-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	walletService walletsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/wallet", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/", walletcontrollers.Overview(walletService, logg))
		r.Get("/transactions", walletcontrollers.Transactions(walletService, cfg.Wallet, logg))

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.WalletRateLimit(cfg.RateLimit, redisClient, logg),
				middleware.Idempotency(redisClient, logg),
			)
			r.Post("/pay", walletcontrollers.Pay(walletService, logg))
			r.Post("/spend", walletcontrollers.Spend(walletService, logg))
			r.Post("/refund", walletcontrollers.Refund(walletService, logg))
			r.Post("/payout", walletcontrollers.Payout(walletService, logg))
		})
	})

	return r
}
