package profile

import "os"

const DefaultName = "main"

// Resolve determines the active profile name using precedence:
// 1. flagOverride (--profile flag)
// 2. MANKELI_PROFILE environment variable
// 3. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if env := os.Getenv("MANKELI_PROFILE"); env != "" {
		return env
	}
	return DefaultName
}
