// internal/app/system/timezones/timezones.go
//
// Package timezones holds the curated zones a desk may close its day in.
package timezones

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Zone is one selectable IANA zone.
type Zone struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Region string `json:"region,omitempty"`
}

var zones = []Zone{
	{ID: "UTC", Label: "Coordinated Universal Time", Region: "Other"},
	{ID: "America/New_York", Label: "Eastern Time (US & Canada)", Region: "Americas"},
	{ID: "America/Chicago", Label: "Central Time (US & Canada)", Region: "Americas"},
	{ID: "America/Denver", Label: "Mountain Time (US & Canada)", Region: "Americas"},
	{ID: "America/Phoenix", Label: "Arizona", Region: "Americas"},
	{ID: "America/Los_Angeles", Label: "Pacific Time (US & Canada)", Region: "Americas"},
	{ID: "America/Anchorage", Label: "Alaska", Region: "Americas"},
	{ID: "Pacific/Honolulu", Label: "Hawaii", Region: "Pacific"},
	{ID: "America/Toronto", Label: "Toronto", Region: "Americas"},
	{ID: "America/Mexico_City", Label: "Mexico City", Region: "Americas"},
	{ID: "Europe/London", Label: "London", Region: "Europe"},
	{ID: "Europe/Paris", Label: "Paris", Region: "Europe"},
	{ID: "Europe/Berlin", Label: "Berlin", Region: "Europe"},
	{ID: "Asia/Tokyo", Label: "Tokyo", Region: "Asia"},
	{ID: "Asia/Singapore", Label: "Singapore", Region: "Asia"},
	{ID: "Australia/Sydney", Label: "Sydney", Region: "Pacific"},
}

var (
	byIDOnce sync.Once
	byID     map[string]Zone

	locMu sync.Mutex
	locs  = map[string]*time.Location{}
)

func index() {
	byIDOnce.Do(func() {
		byID = make(map[string]Zone, len(zones))
		for _, z := range zones {
			byID[z.ID] = z
		}
	})
}

// All returns the curated list of zones in a stable order.
func All() []Zone {
	out := make([]Zone, len(zones))
	copy(out, zones)
	return out
}

// Label returns the human-friendly label for an ID, or the ID itself if not found.
func Label(id string) string {
	index()
	if z, ok := byID[id]; ok && z.Label != "" {
		return z.Label
	}
	return id
}

// Valid reports whether the given ID exists in the curated list.
func Valid(id string) bool {
	index()
	_, ok := byID[id]
	return ok
}

// Location resolves a curated zone ID. An empty id means UTC. Loaded
// locations are cached.
func Location(id string) (*time.Location, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == "UTC" {
		return time.UTC, nil
	}
	if !Valid(id) {
		return nil, fmt.Errorf("timezone %q is not supported", id)
	}

	locMu.Lock()
	defer locMu.Unlock()
	if loc, ok := locs[id]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", id, err)
	}
	locs[id] = loc
	return loc, nil
}
