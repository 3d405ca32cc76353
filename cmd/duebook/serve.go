package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/duebook/pkg/clientip"
	"github.com/dmitrymomot/duebook/pkg/config"
	"github.com/dmitrymomot/duebook/pkg/httpserver"
	"github.com/dmitrymomot/duebook/pkg/jwt"
	"github.com/dmitrymomot/duebook/pkg/ratelimit"
	"github.com/dmitrymomot/duebook/pkg/requestid"
	"github.com/dmitrymomot/duebook/svc/account"
	"github.com/dmitrymomot/duebook/svc/billing"
	"github.com/dmitrymomot/duebook/svc/invoice"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the overdue sweep worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			var jwtCfg jwt.Config
			if err := config.Load(&jwtCfg); err != nil {
				return err
			}
			tokens, err := jwt.New(jwtCfg)
			if err != nil {
				return err
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(a.logger))
			router := a.router(jwt.Middleware(tokens))

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(ctx, router) })
			if cfg.Sweep.Enabled {
				g.Go(a.worker.Run(ctx))
			}
			return g.Wait()
		},
	}
}

// router mounts every service handler. auth guards the dashboard API.
func (a *app) router(auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.HealthCheckHandler(a.logger, a.checks...))

	payments := billing.NewHandler(a.billing, a.cfg.Paystack.SecretKey, a.logger)
	payments.MountWebhook(r)

	r.Group(func(r chi.Router) {
		if a.limiter != nil {
			r.Use(ratelimit.Middleware(a.limiter, ratelimit.ByClientIP("api"), a.logger))
		}
		account.NewHandler(a.accounts, a.cfg.Account, a.logger).Mount(r, auth)
		invoice.NewHandler(a.invoices, a.logger).Mount(r, auth)
		payments.Mount(r, auth)
	})

	return r
}
