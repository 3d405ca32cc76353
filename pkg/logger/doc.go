// Package logger builds the service's *slog.Logger.
//
// New applies Option values on top of JSON/INFO defaults. Registered context
// extractors attach request-scoped attributes, such as the request id, to every
// record logged with a *Context method.
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Parse(cfg.AppEnv), "duebook"),
//	    logger.WithConfig(cfg.Log),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers in attr.go keep key names consistent across packages:
//
//	log.InfoContext(ctx, "invoices marked overdue",
//	    logger.AccountID(accountID),
//	    logger.Count(n),
//	)
//
// Error, AccountID and the other nil-aware helpers return an empty Attr for
// nil input, which slog drops.
package logger
