// Package environment names the deployment environments duebook runs in and
// parses them from configuration.
//
//	env := environment.Parse(cfg.AppEnv)
//	if env.IsProduction() {
//	    // JSON logs, real e-mail delivery
//	}
package environment
