package version

// Version is the current version of the backtest engine.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/sirily11/argo-backtest-core/internal/version.Version=1.2.3"
// The default value is "v0.1.0"; setting it to "main" marks a development
// build, for which compatibility checks are skipped.
var Version = "v0.1.0"

// GetVersion returns the current engine version.
func GetVersion() string {
	return Version
}
