// Package buildinfo exposes build-time information for worldsnap binaries.
//
//	go build -ldflags "-X github.com/yndnr/worldsnap-go/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
