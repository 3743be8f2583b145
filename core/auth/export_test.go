package auth

import "time"

// SetNowFunc replaces the clock of the package and returns a func restoring it.
func SetNowFunc(f func() time.Time) (reset func()) {
	nowFunc = f
	return func() { nowFunc = time.Now }
}
