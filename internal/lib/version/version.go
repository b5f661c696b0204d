package version

// VERSION is set at build time via -ldflags "-X .../version.VERSION=v1.2.3".
// Development builds leave it empty.
var VERSION = ""

// UserAgent returns the User-Agent header sent to the repository host.
func UserAgent() string {
	if VERSION == "" {
		return "addonup/dev"
	}
	return "addonup/" + VERSION
}
