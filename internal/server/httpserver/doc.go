// Package httpserver provides the HTTP/HTTPS server for worldsnap.
//
// It uses net/http with a middleware chain (request ids, panic recovery,
// access logging with metrics, per-client rate limiting and CORS) in front
// of the handler package and the Prometheus endpoint.
package httpserver
