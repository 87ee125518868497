package cache

// Stats is a read-only snapshot of store activity. Hits, Misses,
// Updates, and Clears are monotonic for the lifetime of the store;
// CurrentSize and MaxSizeReached are gauges. Snapshots are taken under
// the store lock, so a snapshot is never torn relative to the map
// mutation it reports. Suitable for periodic export to a metrics
// system.
type Stats struct {
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
	Updates        uint64 `json:"updates"`
	Clears         uint64 `json:"clears"`
	CurrentSize    int    `json:"current_size"`
	MaxSizeReached int    `json:"max_size_reached"`
}

// HitRate returns the hit rate as a percentage of all lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// TotalRequests returns the total number of lookups served.
func (s Stats) TotalRequests() uint64 {
	return s.Hits + s.Misses
}
