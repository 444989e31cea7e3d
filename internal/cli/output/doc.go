// Package output renders worldsnap-cli results.
//
// Results print as an aligned table (default), JSON or YAML. Long-running
// commands show a spinner on stderr while they wait for the server.
package output
