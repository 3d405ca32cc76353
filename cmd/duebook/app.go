package main

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/duebook/pkg/blob"
	"github.com/dmitrymomot/duebook/pkg/clientip"
	"github.com/dmitrymomot/duebook/pkg/config"
	"github.com/dmitrymomot/duebook/pkg/email"
	"github.com/dmitrymomot/duebook/pkg/environment"
	"github.com/dmitrymomot/duebook/pkg/httpserver"
	"github.com/dmitrymomot/duebook/pkg/logger"
	"github.com/dmitrymomot/duebook/pkg/paystack"
	"github.com/dmitrymomot/duebook/pkg/pg"
	"github.com/dmitrymomot/duebook/pkg/ratelimit"
	"github.com/dmitrymomot/duebook/pkg/redis"
	"github.com/dmitrymomot/duebook/pkg/requestid"
	"github.com/dmitrymomot/duebook/pkg/subscription"
	"github.com/dmitrymomot/duebook/store/memory"
	"github.com/dmitrymomot/duebook/store/postgres"
	"github.com/dmitrymomot/duebook/svc/account"
	"github.com/dmitrymomot/duebook/svc/billing"
	"github.com/dmitrymomot/duebook/svc/invoice"
	"github.com/dmitrymomot/duebook/svc/notify"
)

// app holds the wired services for one process.
type app struct {
	cfg    appConfig
	env    environment.Environment
	logger *slog.Logger

	ledger   *subscription.Ledger
	accounts *account.Service
	invoices *invoice.Service
	billing  *billing.Service
	worker   *invoice.Worker

	limiter ratelimit.Limiter
	checks  []httpserver.Check
	closers []func()
}

func newLogger(cfg appConfig) (*slog.Logger, environment.Environment) {
	env := environment.Parse(cfg.Env)
	log := logger.New(
		logger.WithEnvironment(env, cfg.ServiceName),
		logger.WithConfig(cfg.Log),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	)
	logger.SetAsDefault(log)
	return log, env
}

// newApp connects the configured backends and builds every service.
func newApp(ctx context.Context, cfg appConfig) (*app, error) {
	log, env := newLogger(cfg)
	a := &app{cfg: cfg, env: env, logger: log}

	accountStore, subStore, invoiceStore, err := a.stores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.ledger, err = subscription.NewLedger(ctx, subStore, subscription.NewYAMLSource(cfg.PlansFile),
		subscription.WithLogger(log),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load plans from %s: %w", cfg.PlansFile, err)
	}

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("email sender: %w", err)
	}

	notifier, err := notify.NewNotifier(sender, notify.AccountsFunc(accountStore.GetAccount), cfg.Notify,
		notify.WithLogger(log),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.accounts = account.NewService(accountStore, a.ledger,
		account.WithLogger(log),
		account.WithNotifier(notifier),
	)

	invoiceOpts := []invoice.Option{invoice.WithLogger(log)}
	var rateStore ratelimit.Store = ratelimit.NewMemoryStore()
	if client, prefix, err := a.redis(ctx); err != nil {
		log.WarnContext(ctx, "redis unavailable, sweeps run without a lock", logger.Error(err))
	} else if client != nil {
		invoiceOpts = append(invoiceOpts, invoice.WithLocker(redis.NewLocker(client, prefix), cfg.Sweep.LockTTL))
		rateStore = redis.NewRateStore(client, prefix+"ratelimit:")
	}
	if cfg.Limit.Enabled {
		if a.limiter, err = ratelimit.NewFixedWindow(rateStore, cfg.Limit); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.invoices = invoice.NewService(invoiceStore, invoiceOpts...)
	a.worker = invoice.NewWorker(a.invoices, invoiceStore, cfg.Sweep,
		invoice.WithDigestNotifier(notifier),
		invoice.WithWorkerLogger(log),
	)

	billingOpts := []billing.Option{billing.WithLogger(log)}
	archive, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("webhook archive: %w", err)
	}
	if archive != nil {
		billingOpts = append(billingOpts, billing.WithArchive(archive))
	}

	var gateway billing.Gateway
	if client, err := paystack.NewClient(cfg.Paystack); err != nil {
		log.WarnContext(ctx, "paystack client disabled, checkout is unavailable", logger.Error(err))
	} else {
		gateway = client
	}
	a.billing = billing.NewService(a.ledger, a.accounts, gateway, billingOpts...)

	return a, nil
}

// stores returns the storage backend named by STORE_DRIVER.
func (a *app) stores(ctx context.Context) (account.Store, subscription.Store, invoice.Store, error) {
	if a.cfg.StoreDriver == driverMemory {
		a.logger.WarnContext(ctx, "using in-memory storage, data is lost on exit")
		return memory.NewAccountStore(), memory.NewSubscriptionStore(), memory.NewInvoiceStore(), nil
	}

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return nil, nil, nil, err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	a.closers = append(a.closers, pool.Close)
	a.checks = append(a.checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})

	return postgres.NewAccountStore(pool), postgres.NewSubscriptionStore(pool), postgres.NewInvoiceStore(pool), nil
}

// redis connects when REDIS_URL is set. A nil client means none is configured.
func (a *app) redis(ctx context.Context) (*goredis.Client, string, error) {
	if a.cfg.RedisURL == "" {
		return nil, "", nil
	}
	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return nil, "", err
	}
	client, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return nil, "", err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.checks = append(a.checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	return client, redisCfg.KeyPrefix, nil
}

// Close releases connections in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
