package main

import (
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var inverterLabels = []string{"inverter_name", "site_id", "inverter_id"}

// numericReading binds a reading key to its metric
type numericReading struct {
	key       string
	desc      *prometheus.Desc
	valueType prometheus.ValueType
}

// Collector implements prometheus.Collector for SolarEdge inverter readings.
// It only reads cached snapshots; scrapes never reach the monitoring API.
type Collector struct {
	registries []*Registry

	// Metrics
	numeric           []numericReading
	inverterMode      *prometheus.Desc
	sampleTimestamp   *prometheus.Desc
	snapshotAvailable *prometheus.Desc
}

// NewCollector creates a new SolarEdge collector
func NewCollector(registries []*Registry) *Collector {
	return &Collector{
		registries: registries,
		numeric: []numericReading{
			{
				key: "L1Data_acVoltage",
				desc: prometheus.NewDesc(
					"solaredge_ac_voltage_volts",
					"Phase L1 AC voltage in volts",
					inverterLabels,
					nil,
				),
				valueType: prometheus.GaugeValue,
			},
			{
				key: "totalActivePower",
				desc: prometheus.NewDesc(
					"solaredge_active_power_watts",
					"Total active power in watts",
					inverterLabels,
					nil,
				),
				valueType: prometheus.GaugeValue,
			},
			{
				key: "powerLimit",
				desc: prometheus.NewDesc(
					"solaredge_power_limit_percent",
					"Inverter power limit in percent",
					inverterLabels,
					nil,
				),
				valueType: prometheus.GaugeValue,
			},
			{
				key: "totalEnergy",
				desc: prometheus.NewDesc(
					"solaredge_energy_total_watt_hours",
					"Lifetime energy produced in watt-hours",
					inverterLabels,
					nil,
				),
				valueType: prometheus.CounterValue,
			},
		},
		inverterMode: prometheus.NewDesc(
			"solaredge_inverter_mode_info",
			"Current inverter operating mode",
			append(append([]string{}, inverterLabels...), "mode"),
			nil,
		),
		sampleTimestamp: prometheus.NewDesc(
			"solaredge_sample_timestamp_seconds",
			"Unix time of the telemetry sample the readings come from",
			inverterLabels,
			nil,
		),
		snapshotAvailable: prometheus.NewDesc(
			"solaredge_snapshot_available",
			"Whether the last successful refresh produced readings (1=yes, 0=no)",
			inverterLabels,
			nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, n := range c.numeric {
		ch <- n.desc
	}
	ch <- c.inverterMode
	ch <- c.sampleTimestamp
	ch <- c.snapshotAvailable
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, registry := range c.registries {
		c.collectInverter(registry, ch)
	}
}

func (c *Collector) collectInverter(registry *Registry, ch chan<- prometheus.Metric) {
	inverter := registry.Inverter()
	labels := []string{inverter.Name, inverter.SiteID, inverter.InverterID}

	readings := make(map[string]Reading)
	for _, reading := range registry.Readings() {
		if reading.Value != nil {
			readings[reading.Key] = reading
		}
	}

	if len(readings) == 0 {
		ch <- prometheus.MustNewConstMetric(c.snapshotAvailable, prometheus.GaugeValue, 0, labels...)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.snapshotAvailable, prometheus.GaugeValue, 1, labels...)

	var sampleDate string
	for _, n := range c.numeric {
		reading, ok := readings[n.key]
		if !ok {
			continue
		}
		value, ok := reading.Value.(float64)
		if !ok {
			log.Printf("Warning: reading %s of %s is not numeric: %v", n.key, inverter.Name, reading.Value)
			continue
		}
		ch <- prometheus.MustNewConstMetric(n.desc, n.valueType, value, labels...)
		if reading.Attributes != nil {
			sampleDate = reading.Attributes.Date
		}
	}

	if reading, ok := readings["inverterMode"]; ok {
		modeLabels := append(append([]string{}, labels...), toLabel(reading.Value))
		ch <- prometheus.MustNewConstMetric(c.inverterMode, prometheus.GaugeValue, 1, modeLabels...)
		if reading.Attributes != nil {
			sampleDate = reading.Attributes.Date
		}
	}

	if sampleDate == "" {
		return
	}
	// sample dates carry no zone; the API reports them in site local time
	sampled, err := time.ParseInLocation(apiTimeLayout, sampleDate, time.Local)
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.sampleTimestamp, prometheus.GaugeValue, float64(sampled.Unix()), labels...)
}

func toLabel(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
