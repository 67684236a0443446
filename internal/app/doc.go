// Package app provides application initialization and lifecycle
// management for the data-insights server. It handles the orchestration
// of all major components including configuration loading, service
// initialization, and graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and observability
//	3. Create the session store and exporters
//	4. Initialize the data service with its dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure and start the HTTP server
//	7. Set up graceful shutdown handlers
//
// # Usage
//
// The main entry point is typically:
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM signals to ensure active
// requests are completed, the session store sweep is stopped and final
// telemetry is flushed. All initialization errors are returned to the
// caller; the package never calls os.Exit() directly.
package app
