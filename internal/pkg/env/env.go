// Package env provides utilities for working with environment variables.
package env

import (
	"os"
	"strconv"
)

// Get returns the value of the environment variable or the default if not set.
func Get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// First returns the value of the first environment variable in keys that is set,
// or the default if none are.
func First(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

// GetUint64 returns the environment variable parsed as uint64, or the default
// if it is unset or not a valid number.
func GetUint64(key string, defaultValue uint64) uint64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return defaultValue
	}
	return v
}
