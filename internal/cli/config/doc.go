// Package config holds worldsnap-cli defaults read from ~/.worldsnap/cli.yaml.
//
// Flags and WORLDSNAP_CLI_* environment variables override the file.
package config
