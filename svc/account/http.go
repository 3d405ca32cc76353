package account

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/duebook/binder"
	"github.com/dmitrymomot/duebook/handler"
	"github.com/dmitrymomot/duebook/pkg/jwt"
	"github.com/dmitrymomot/duebook/pkg/subscription"
)

// Config holds the provisioning hook settings.
type Config struct {
	HookSecret string `env:"PROVISION_HOOK_SECRET"`
}

// Handler exposes the account service over HTTP.
type Handler struct {
	svc          *Service
	hookSecret   string
	logger       *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc *Service, cfg Config, log *slog.Logger) *Handler {
	if svc == nil {
		panic("account: Service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc:          svc,
		hookSecret:   cfg.HookSecret,
		logger:       log,
		errorHandler: handler.NewErrorHandler[handler.Context](log),
	}
}

// Mount registers the provisioning hook and the authenticated account route.
func (h *Handler) Mount(r chi.Router, auth func(http.Handler) http.Handler) {
	r.With(h.requireHookSecret).Post("/hooks/provision", handler.Wrap(h.provision,
		handler.WithBinder[handler.Context, Signup](binder.JSON()),
		handler.WithErrorHandler[handler.Context, Signup](h.errorHandler),
	))
	r.With(auth).Get("/api/account", handler.Wrap(h.overview,
		handler.WithErrorHandler[handler.Context, struct{}](h.errorHandler),
	))
}

type provisionResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) provision(ctx handler.Context, req Signup) handler.Response {
	if _, err := h.svc.Provision(ctx, req); err != nil {
		if errors.Is(err, ErrInvalidSignup) {
			return h.fail(ctx, errors.Join(handler.ErrBadRequest, err))
		}
		return h.fail(ctx, errors.Join(handler.ErrInternalServerError, err))
	}
	return handler.JSON(provisionResponse{Success: true})
}

func (h *Handler) overview(ctx handler.Context, _ struct{}) handler.Response {
	id, ok := jwt.AccountIDFromContext(ctx)
	if !ok {
		return handler.JSONError(handler.ErrUnauthorized)
	}
	out, err := h.svc.Overview(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return handler.JSONError(errors.Join(handler.ErrNotFound, err))
		}
		return h.fail(ctx, err)
	}
	return handler.JSON(out)
}

func (h *Handler) fail(ctx handler.Context, err error) handler.Response {
	handler.LogError(h.logger, ctx.Request(), err)
	return handler.JSONError(err)
}

// requireHookSecret checks the shared bearer secret sent by the auth provider.
func (h *Handler) requireHookSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := handler.NewContext(w, r)
		if h.hookSecret == "" {
			h.errorHandler(ctx, errors.Join(handler.ErrInternalServerError, ErrHookSecretNotConfigured))
			return
		}
		token, err := jwt.BearerToken(r)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(h.hookSecret)) != 1 {
			h.errorHandler(ctx, errors.Join(handler.ErrUnauthorized, ErrInvalidHookSecret))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// compile-time check
var _ Ledger = (*subscription.Ledger)(nil)
