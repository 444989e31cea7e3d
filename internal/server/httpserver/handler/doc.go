// Package handler provides the HTTP API of worldsnap-server.
//
// Every response uses the JSON envelope defined in types.go. Responses that
// concern the managed game server carry its state in server_status, also
// when the request failed.
package handler
