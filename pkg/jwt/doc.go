// Package jwt verifies HS256 access tokens issued by the hosted auth provider
// using github.com/golang-jwt/jwt/v5. The token subject is the account id.
//
//	svc, err := jwt.New(cfg)
//	r.With(jwt.Middleware(svc)).Get("/api/account", h)
//
//	// inside a handler
//	accountID, ok := jwt.AccountIDFromContext(r.Context())
package jwt
