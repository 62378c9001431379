package buildinfo

import (
	"fmt"
	"runtime/debug"

	"github.com/cordum/pathpack/core/infra/logging"
)

// Set through -ldflags "-X" at release time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a single-line build summary.
func Info() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version(), Commit, Date)
}

// Log writes the build summary for a binary.
func Log(service string) {
	logging.Info(service, "starting", "version", version(), "commit", Commit, "date", Date)
}

// version prefers the linker-provided value and falls back to the module
// version recorded by `go install`.
func version() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}
