package invoice

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/duebook/binder"
	"github.com/dmitrymomot/duebook/handler"
	"github.com/dmitrymomot/duebook/pkg/jwt"
)

// Handler exposes invoice aging to the authenticated dashboard.
type Handler struct {
	svc          *Service
	logger       *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if svc == nil {
		panic("invoice: Service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc:          svc,
		logger:       log,
		errorHandler: handler.NewErrorHandler[handler.Context](log),
	}
}

// Mount registers the invoice routes behind auth.
func (h *Handler) Mount(r chi.Router, auth func(http.Handler) http.Handler) {
	r.With(auth).Route("/api/invoices", func(r chi.Router) {
		r.Post("/sweep", handler.Wrap(h.sweep,
			handler.WithErrorHandler[handler.Context, struct{}](h.errorHandler),
		))
		r.Get("/overdue", handler.Wrap(h.overdue,
			handler.WithErrorHandler[handler.Context, struct{}](h.errorHandler),
		))
		r.Post("/{id}/pay", handler.Wrap(h.pay,
			handler.WithBinder[handler.Context, payRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, payRequest](h.errorHandler),
		))
	})
}

type sweepResponse struct {
	Updated int `json:"updated"`
}

func (h *Handler) sweep(ctx handler.Context, _ struct{}) handler.Response {
	accountID, ok := jwt.AccountIDFromContext(ctx)
	if !ok {
		return handler.JSONError(handler.ErrUnauthorized)
	}
	n, err := h.svc.SweepOverdue(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			return handler.JSONError(errors.Join(handler.ErrConflict, err))
		}
		return h.fail(ctx, err)
	}
	return handler.JSON(sweepResponse{Updated: n})
}

func (h *Handler) overdue(ctx handler.Context, _ struct{}) handler.Response {
	accountID, ok := jwt.AccountIDFromContext(ctx)
	if !ok {
		return handler.JSONError(handler.ErrUnauthorized)
	}
	report, err := h.svc.OverdueStats(ctx, accountID)
	if err != nil {
		return h.fail(ctx, err)
	}
	return handler.JSON(report)
}

type payRequest struct {
	InvoiceID uuid.UUID `path:"id"`
}

func (h *Handler) pay(ctx handler.Context, req payRequest) handler.Response {
	accountID, ok := jwt.AccountIDFromContext(ctx)
	if !ok {
		return handler.JSONError(handler.ErrUnauthorized)
	}
	inv, err := h.svc.RecordPayment(ctx, accountID, req.InvoiceID)
	switch {
	case err == nil:
		return handler.JSON(inv)
	case errors.Is(err, ErrInvoiceNotFound):
		return handler.JSONError(errors.Join(handler.ErrNotFound, err))
	case errors.Is(err, ErrInvoiceAlreadyPaid):
		return handler.JSONError(errors.Join(handler.ErrConflict, err))
	case errors.Is(err, ErrMissingInvoiceID):
		return handler.JSONError(errors.Join(handler.ErrBadRequest, err))
	default:
		return h.fail(ctx, err)
	}
}

func (h *Handler) fail(ctx handler.Context, err error) handler.Response {
	handler.LogError(h.logger, ctx.Request(), err)
	return handler.JSONError(err)
}
