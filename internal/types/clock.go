package types

import "time"

// Clock abstracts time for testability. Services that make expiry decisions
// take a Clock instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock backed by time.Now.
type RealClock struct{}

// Now returns the current UTC time.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}
