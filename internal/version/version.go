// Package version holds the build version, set with:
//
//	go build -ldflags "-X github.com/ramonehamilton/commander-rater/internal/version.Version=v1.2.3"
package version

// Version defaults to "dev" for local builds.
var Version = "dev"

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}

// UserAgent returns product/version for outbound requests.
func UserAgent(product string) string {
	return product + "/" + Version
}
