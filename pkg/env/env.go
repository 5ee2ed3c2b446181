// Package env holds tiny helpers for reading process environment variables
// outside the envconfig-managed config struct (bootstrap paths only).
package env

import "os"

// Get reads key from the environment, falling back when unset or empty.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
