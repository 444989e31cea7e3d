// Package main provides the entry point for worldsnap-cli.
//
// worldsnap-cli drives a worldsnap-server over HTTP:
//
//	worldsnap-cli snapshot list
//	worldsnap-cli snapshot create before-update
//	worldsnap-cli snapshot restore --yes 2024-05-01_20-00-00
//	worldsnap-cli -s game-host:4000 -o json server status
//	worldsnap-cli shell
package main
