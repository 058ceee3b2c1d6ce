// Package version carries the build version of the quarry CLI.
package version

// version is overridden at build time via
// -ldflags "-X github.com/quarrydata/quarry/version.version=v1.2.3".
var version = "dev"

// Version returns the build version string.
func Version() string {
	return version
}
