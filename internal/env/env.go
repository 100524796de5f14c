// Package env captures details about the scheduler's runtime environment.
package env

import "os"

// BloopRoot is the root directory under which projectfile descriptions,
// classes directories, and the event log live unless overridden per call.
var BloopRoot = findBloopRoot()

func findBloopRoot() string {
	if v := os.Getenv("BLOOPROOT"); v != "" {
		return v
	}
	return os.ExpandEnv("$HOME/.bloopd") // default
}
