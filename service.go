package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

const (
	inverterUpdateInterval = 5 * time.Minute

	// The inverter stops reporting to the cloud when it is not producing, so a
	// short window at night or early morning returns no samples at all.
	defaultLookback = 20 * time.Hour
)

// DataService fetches one group of readings from the monitoring API
type DataService interface {
	Name() string
	UpdateInterval() time.Duration
	Update(ctx context.Context) (*Snapshot, error)
}

// InverterDetailsService reads the latest telemetry of a single inverter
type InverterDetailsService struct {
	inverter Inverter
	fetcher  Fetcher
	interval time.Duration
	lookback time.Duration
	now      func() time.Time
}

// NewInverterDetailsService creates the data service for one inverter.
// Zero interval and lookback select the defaults.
func NewInverterDetailsService(inverter Inverter, fetcher Fetcher, interval, lookback time.Duration) *InverterDetailsService {
	if interval <= 0 {
		interval = inverterUpdateInterval
	}
	if lookback <= 0 {
		lookback = defaultLookback
	}
	return &InverterDetailsService{
		inverter: inverter,
		fetcher:  fetcher,
		interval: interval,
		lookback: lookback,
		now:      time.Now,
	}
}

func (s *InverterDetailsService) Name() string { return s.inverter.Name }

func (s *InverterDetailsService) UpdateInterval() time.Duration { return s.interval }

// Update fetches the telemetry window ending now and maps the latest sample
func (s *InverterDetailsService) Update(ctx context.Context) (*Snapshot, error) {
	end := s.now()
	start := end.Add(-s.lookback)

	raw, err := s.fetcher.FetchInverterData(ctx, s.inverter.SiteID, s.inverter.InverterID, start, end)
	if err != nil {
		return nil, &FetchError{Reason: "failed to fetch inverter data", Err: err}
	}
	if !gjson.ValidBytes(raw) {
		return nil, &FetchError{Reason: "inverter data response is not valid JSON"}
	}

	details := gjson.GetBytes(raw, "data")
	if !details.Exists() {
		return nil, &FetchError{Reason: "missing inverter data, skipping update"}
	}

	snapshot, err := mapInverterDetails(details)
	if err != nil {
		return nil, err
	}
	snapshot.FetchedAt = end
	return snapshot, nil
}

func (s *InverterDetailsService) String() string {
	return fmt.Sprintf("inverter %s (site %s, inverter %s)", s.inverter.Name, s.inverter.SiteID, s.inverter.InverterID)
}
