// Package app wires the dashboard server together and owns its lifecycle.
//
// New resolves paths, initialises logging and telemetry, loads the dataset,
// builds the services and the chi router. Start launches the background
// goroutines (WebSocket hub, file watcher, export scheduler, runtime
// sampler) and the HTTP server; Stop shuts them down in reverse order and
// reports every failure at once.
//
// A day.csv or hour.csv that cannot be loaded is fatal in New. Later reloads
// triggered by the watcher only log and broadcast the failure.
package app
