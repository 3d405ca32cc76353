// Package handler provides typed HTTP handlers for the JSON API.
//
// A HandlerFunc receives a Context and a request value filled by binders, and
// returns a Response. Wrap adapts it to http.HandlerFunc:
//
//	type CheckoutRequest struct {
//		PlanID          string `json:"planId"`
//		BillingInterval string `json:"billingInterval"`
//	}
//
//	func checkout(ctx handler.Context, req CheckoutRequest) handler.Response {
//		res, err := svc.Checkout(ctx, req)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(res)
//	}
//
//	r.Post("/api/checkout", handler.Wrap(checkout,
//		handler.WithBinder[handler.Context, CheckoutRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, CheckoutRequest](handler.NewErrorHandler[handler.Context](log)),
//	))
//
// # Errors
//
// HTTPError pairs a status code with a stable key. Services join it with the
// cause, and JSONError renders {"error", "code"} using that status. Binding
// failures are joined with ErrBadRequest before reaching the ErrorHandler.
// Errors without an HTTPError render as 500 with a generic message.
package handler
