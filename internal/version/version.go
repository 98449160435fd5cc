package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is the current version of the traderz-go SDK.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/traderz-go/internal/version.Version=1.2.3"
// The value "main" indicates a development build.
var Version = "v0.3.0"

// GetVersion returns the current version of the library.
func GetVersion() string {
	return Version
}

// Normalize returns v in canonical "MAJOR.MINOR.PATCH" form without the
// leading "v". Development builds ("main") are returned unchanged.
func Normalize(v string) (string, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "main" {
		return v, nil
	}

	parsed, err := semver.NewVersion(v)
	if err != nil {
		return "", fmt.Errorf("invalid version '%s': %w", v, err)
	}

	return parsed.String(), nil
}

// UserAgent returns the User-Agent header value sent with every request.
// An unparsable build version is reported as "main".
func UserAgent() string {
	v, err := Normalize(Version)
	if err != nil {
		v = "main"
	}

	return "traderz-go/" + v
}
