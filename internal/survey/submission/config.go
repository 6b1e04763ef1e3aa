// internal/survey/submission/config.go
package submission

import (
	"fmt"
	"runtime"
)

type Config struct {
	Collection string
	UserAgent  string
}

// DefaultUserAgent describes the kiosk binary itself when no browser user
// agent is configured.
func DefaultUserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("survey-kiosk/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH)
}
