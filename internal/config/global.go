// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride allows tests to redirect the config directory lookup.
// os.UserHomeDir() doesn't reliably respect the HOME environment variable
// on all platforms (e.g., macOS in CI), so tests set a directory here
// instead of mutating the environment.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path for tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
