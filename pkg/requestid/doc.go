// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware reads X-Request-ID, replaces missing or malformed values with a
// fresh UUID, stores the id in the request context and echoes it back.
// LoggerExtractor plugs into logger.WithContextExtractors so every record
// logged with the request context carries request_id.
package requestid
