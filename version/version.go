// Package version exposes build information injected at link time.
package version

import "runtime"

// Populated via -ldflags at release build time.
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
)

// GoInfo reports the Go toolchain the binary was built with.
var GoInfo = runtime.Version()
