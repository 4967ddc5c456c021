// Package bootstrap runs an sseplex process: it validates the typed config,
// initializes logging, starts the registered components in order, waits for
// SIGINT/SIGTERM and stops everything again in reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(brokerComponent)
//	app.RegisterComponent(httpComponent)
//	err = app.Run(ctx)
package bootstrap
