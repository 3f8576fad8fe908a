package util

import (
	"sync"
	"time"
)

var (
	locationMu sync.RWMutex
	location   = time.UTC
)

// SetTimezone changes the zone used by FormatLocal. Unknown names keep
// the previous zone and return the lookup error.
func SetTimezone(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	locationMu.Lock()
	location = loc
	locationMu.Unlock()
	return nil
}

func currentLocation() *time.Location {
	locationMu.RLock()
	defer locationMu.RUnlock()
	return location
}

func FormatLocal(t time.Time, layout string) string {
	return t.In(currentLocation()).Format(layout)
}
