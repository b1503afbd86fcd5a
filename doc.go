// Package turbo wires together the request-dispatch core — router,
// handler compiler, DI container — into an application with a lifecycle
// state machine and a graceful-shutdown HTTP server.
package turbo
