package cache

import "fmt"

const (
	rateLimitKeyFormat = "rl:%s:%s"
	lockKeyFormat      = "lock:%s"
)

// RateLimitKey is the fixed-window counter key for one caller of a resource.
func RateLimitKey(resource, id string) string {
	return fmt.Sprintf(rateLimitKeyFormat, resource, id)
}

// LockKey is the key holding a named maintenance lock.
func LockKey(name string) string {
	return fmt.Sprintf(lockKeyFormat, name)
}
