// Package health aggregates backend readiness checks.
//
// Every integration package exposes a Healthcheck constructor with the
// func(context.Context) error signature. Readiness runs a set of them
// concurrently and reports every failure, tagged with the check name:
//
//	ready := health.Readiness(log,
//		health.Named("pg", pg.Healthcheck(pool)),
//		health.Named("redis", redis.Healthcheck(client)),
//	)
//	if err := ready(ctx); err != nil {
//		// errors.Is(err, health.ErrNotReady) == true
//	}
//
// A readiness check with no checks always succeeds, which makes it a
// liveness probe.
package health
