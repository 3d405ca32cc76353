package billing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/duebook/binder"
	"github.com/dmitrymomot/duebook/handler"
	"github.com/dmitrymomot/duebook/pkg/jwt"
	"github.com/dmitrymomot/duebook/pkg/paystack"
	"github.com/dmitrymomot/duebook/svc/account"
)

// MaxWebhookBytes caps the webhook body.
const MaxWebhookBytes = 64 << 10

// Handler exposes the billing service over HTTP.
type Handler struct {
	svc          *Service
	secret       string
	logger       *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

// NewHandler creates the HTTP handler. secret is the Paystack secret key used
// to verify webhook signatures.
func NewHandler(svc *Service, secret string, log *slog.Logger) *Handler {
	if svc == nil {
		panic("billing: Service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc:          svc,
		secret:       secret,
		logger:       log,
		errorHandler: handler.NewErrorHandler[handler.Context](log),
	}
}

// MountWebhook registers the signed Paystack webhook.
// Mount it outside per-client rate limits: Paystack delivers from a few shared IPs.
func (h *Handler) MountWebhook(r chi.Router) {
	r.Post("/webhooks/paystack", handler.Wrap(h.webhook,
		handler.WithErrorHandler[handler.Context, struct{}](h.errorHandler),
	))
}

// Mount registers the authenticated checkout route.
func (h *Handler) Mount(r chi.Router, auth func(http.Handler) http.Handler) {
	r.With(auth).Post("/api/checkout", handler.Wrap(h.checkout,
		handler.WithBinder[handler.Context, CheckoutRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, CheckoutRequest](h.errorHandler),
	))
}

type webhookResponse struct {
	Received bool `json:"received"`
}

func (h *Handler) webhook(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()

	payload, err := io.ReadAll(io.LimitReader(r.Body, MaxWebhookBytes+1))
	if err != nil {
		return handler.JSONError(errors.Join(handler.ErrBadRequest, err))
	}
	if len(payload) > MaxWebhookBytes {
		return handler.JSONError(errors.Join(handler.ErrRequestTooLarge,
			fmt.Errorf("webhook body exceeds %d bytes", MaxWebhookBytes)))
	}

	if err := paystack.VerifySignature(h.secret, payload, r.Header.Get(paystack.SignatureHeader)); err != nil {
		if errors.Is(err, paystack.ErrMissingSecretKey) {
			return h.fail(ctx, errors.Join(handler.ErrInternalServerError, err))
		}
		return h.fail(ctx, errors.Join(handler.ErrUnauthorized, paystack.ErrInvalidSignature))
	}

	h.svc.Archive(ctx, payload)

	ev, err := paystack.ParseEvent(payload)
	if err != nil {
		return h.fail(ctx, errors.Join(handler.ErrBadRequest, err))
	}
	if err := h.svc.HandleEvent(ctx, ev); err != nil {
		return h.fail(ctx, errors.Join(handler.ErrInternalServerError, err))
	}
	return handler.JSON(webhookResponse{Received: true})
}

func (h *Handler) checkout(ctx handler.Context, req CheckoutRequest) handler.Response {
	claims, ok := jwt.ClaimsFromContext(ctx)
	if !ok {
		return handler.JSONError(handler.ErrUnauthorized)
	}
	id, err := claims.AccountID()
	if err != nil {
		return handler.JSONError(errors.Join(handler.ErrUnauthorized, err))
	}

	tx, err := h.svc.Checkout(ctx, id, claims.Email, req)
	switch {
	case err == nil:
		return handler.JSON(tx)
	case errors.Is(err, ErrInvalidCheckout):
		return handler.JSONError(errors.Join(handler.ErrBadRequest, err))
	case errors.Is(err, account.ErrAccountNotFound):
		return handler.JSONError(errors.Join(handler.ErrNotFound, err))
	case errors.Is(err, ErrGatewayUnavailable):
		return h.fail(ctx, errors.Join(handler.ErrServiceUnavailable, err))
	case errors.Is(err, ErrCheckoutFailed):
		return h.fail(ctx, errors.Join(handler.ErrBadGateway, err))
	default:
		return h.fail(ctx, errors.Join(handler.ErrInternalServerError, err))
	}
}

func (h *Handler) fail(ctx handler.Context, err error) handler.Response {
	handler.LogError(h.logger, ctx.Request(), err)
	return handler.JSONError(err)
}
