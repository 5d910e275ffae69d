// Package api provides the picvault HTTP surface and the client the CLI
// uses to talk to a running daemon. Every JSON endpoint wraps its payload
// in a {status, data, error} envelope.
package api
