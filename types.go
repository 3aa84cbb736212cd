package main

import "time"

// Inverter represents a single SolarEdge inverter attached to a monitoring site
type Inverter struct {
	Name       string
	SiteID     string
	InverterID string
}

// ReadingAttributes holds the metadata attached to a reading
type ReadingAttributes struct {
	Date string `json:"date"`
}

// Snapshot is the immutable result of one successful refresh.
// Values and Attributes always carry the same set of keys.
type Snapshot struct {
	Values     map[string]any
	Attributes map[string]ReadingAttributes
	FetchedAt  time.Time
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Values:     make(map[string]any),
		Attributes: make(map[string]ReadingAttributes),
	}
}

// Len returns the number of readings in the snapshot
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Reading is the host-facing view of one reading
type Reading struct {
	UniqueID   string             `json:"unique_id"`
	Key        string             `json:"key"`
	Name       string             `json:"name"`
	Unit       string             `json:"unit,omitempty"`
	Value      any                `json:"value"`
	Attributes *ReadingAttributes `json:"attributes,omitempty"`
}

// DeviceInfo describes the physical device a set of readings belongs to
type DeviceInfo struct {
	Manufacturer string `json:"manufacturer"`
	SiteID       string `json:"site_id"`
	InverterID   string `json:"inverter_id"`
}
