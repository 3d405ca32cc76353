// Package clientip resolves the originating client address of a request
// behind Cloudflare or a reverse proxy and carries it in the request context.
package clientip
