// Package connection is the HTTP client worldsnap-cli uses to talk to
// worldsnap-server. It unwraps the server's JSON envelope and turns error
// envelopes into *APIError values.
package connection
