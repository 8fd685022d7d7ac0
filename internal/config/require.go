package config

import "log"

// MustNonEmpty is for configuration the process cannot run without, like the
// signing secret: absence is a startup fatal, not a per-request error.
func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}
