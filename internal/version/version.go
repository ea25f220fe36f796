// Package version exposes build-time metadata stamped in via -ldflags.
package version

// Set at build time:
//
//	go build -ldflags "-X github.com/partsbench/partcounter/internal/version.VERSION=v1.2.0 \
//	                   -X github.com/partsbench/partcounter/internal/version.COMMIT=$(git rev-parse --short HEAD) \
//	                   -X github.com/partsbench/partcounter/internal/version.BUILDTIME=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	VERSION   = "dev"
	COMMIT    = "unknown"
	BUILDTIME = "unknown"
)
