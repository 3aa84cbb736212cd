package main

import (
	"fmt"
	"sync"
)

const manufacturer = "SolarEdge"

// Unit of measurement constants
const (
	unitPercent  = "%"
	unitWattHour = "Wh"
	unitWatt     = "W"
	unitVolt     = "V"
)

// Device classes
const (
	classPowerFactor = "power_factor"
	classEnergy      = "energy"
	classPower       = "power"
	classVoltage     = "voltage"
	classEnum        = "enum"
)

// State classes
const (
	stateMeasurement = "measurement"
	stateTotal       = "total"
)

// ReadingDefinition describes one reading exposed for an inverter
type ReadingDefinition struct {
	Key              string
	JSONKey          string
	Name             string
	Unit             string
	DeviceClass      string
	StateClass       string
	Icon             string
	EnabledByDefault bool
}

var readingDefinitions = []ReadingDefinition{
	{
		Key:              "powerLimit",
		JSONKey:          "powerLimit",
		Name:             "Power limit",
		Unit:             unitPercent,
		DeviceClass:      classPowerFactor,
		Icon:             "mdi:car-speed-limiter",
		EnabledByDefault: true,
	},
	{
		Key:         "inverterMode",
		JSONKey:     "inverterMode",
		Name:        "Inverter mode",
		DeviceClass: classEnum,
		Icon:        "mdi:cog-outline",
	},
	{
		Key:              "totalEnergy",
		JSONKey:          "totalEnergy",
		Name:             "Total energy",
		Unit:             unitWattHour,
		DeviceClass:      classEnergy,
		StateClass:       stateTotal,
		Icon:             "mdi:solar-power",
		EnabledByDefault: true,
	},
	{
		Key:              "totalActivePower",
		JSONKey:          "totalActivePower",
		Name:             "Total active power",
		Unit:             unitWatt,
		DeviceClass:      classPower,
		StateClass:       stateMeasurement,
		Icon:             "mdi:solar-power",
		EnabledByDefault: true,
	},
	{
		Key:              "L1Data_acVoltage",
		JSONKey:          "L1Data_acVoltage",
		Name:             "L1 AC voltage",
		Unit:             unitVolt,
		DeviceClass:      classVoltage,
		StateClass:       stateMeasurement,
		Icon:             "mdi:sine-wave",
		EnabledByDefault: true,
	},
}

// serviceKind identifies which data service owns a reading
type serviceKind string

const serviceInverterDetails serviceKind = "inverter_details"

var readingServices = map[string]serviceKind{
	"L1Data_acVoltage": serviceInverterDetails,
	"totalActivePower": serviceInverterDetails,
	"powerLimit":       serviceInverterDetails,
	"totalEnergy":      serviceInverterDetails,
	"inverterMode":     serviceInverterDetails,
}

// lookupDefinition returns the definition for key
func lookupDefinition(key string) (ReadingDefinition, bool) {
	for _, def := range readingDefinitions {
		if def.Key == key {
			return def, true
		}
	}
	return ReadingDefinition{}, false
}

// Registry is a read-through view of the readings of one inverter
type Registry struct {
	inverter     Inverter
	coordinators map[serviceKind]*Coordinator

	mu      sync.RWMutex
	enabled map[string]bool
}

// NewRegistry creates the registry for an inverter backed by its coordinators
func NewRegistry(inverter Inverter, coordinators map[serviceKind]*Coordinator) *Registry {
	enabled := make(map[string]bool, len(readingDefinitions))
	for _, def := range readingDefinitions {
		enabled[def.Key] = def.EnabledByDefault
	}
	return &Registry{
		inverter:     inverter,
		coordinators: coordinators,
		enabled:      enabled,
	}
}

// Enable marks additional readings as enabled
func (r *Registry) Enable(keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		if _, ok := lookupDefinition(key); !ok {
			return fmt.Errorf("unknown reading %q", key)
		}
		r.enabled[key] = true
	}
	return nil
}

// Enabled reports whether a reading is enabled
func (r *Registry) Enabled(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[key]
}

// Inverter returns the inverter this registry describes
func (r *Registry) Inverter() Inverter { return r.inverter }

// Definitions returns the static reading definitions
func (r *Registry) Definitions() []ReadingDefinition {
	defs := make([]ReadingDefinition, len(readingDefinitions))
	copy(defs, readingDefinitions)
	return defs
}

// Device returns the device info shared by all readings of the inverter
func (r *Registry) Device() DeviceInfo {
	return DeviceInfo{
		Manufacturer: manufacturer,
		SiteID:       r.inverter.SiteID,
		InverterID:   r.inverter.InverterID,
	}
}

// UniqueID returns the external identifier of a reading.
// It is empty when the site or inverter id is unknown.
func (r *Registry) UniqueID(key string) string {
	if r.inverter.SiteID == "" || r.inverter.InverterID == "" {
		return ""
	}
	return fmt.Sprintf("%s_%s_%s", r.inverter.SiteID, r.inverter.InverterID, key)
}

func (r *Registry) snapshotFor(key string) (ReadingDefinition, *Snapshot) {
	def, ok := lookupDefinition(key)
	if !ok {
		return ReadingDefinition{}, nil
	}
	coordinator, ok := r.coordinators[readingServices[key]]
	if !ok || coordinator == nil {
		return def, nil
	}
	return def, coordinator.Snapshot()
}

// Read returns the current value of a reading
func (r *Registry) Read(key string) (any, bool) {
	def, snapshot := r.snapshotFor(key)
	if snapshot == nil {
		return nil, false
	}
	value, ok := snapshot.Values[def.JSONKey]
	return value, ok
}

// ReadAttributes returns the metadata of a reading
func (r *Registry) ReadAttributes(key string) (ReadingAttributes, bool) {
	def, snapshot := r.snapshotFor(key)
	if snapshot == nil {
		return ReadingAttributes{}, false
	}
	attrs, ok := snapshot.Attributes[def.JSONKey]
	return attrs, ok
}

// Readings returns every enabled reading, with nil values for absent ones.
// Each service's snapshot is loaded once, so readings of one service are
// never mixed across refreshes.
func (r *Registry) Readings() []Reading {
	snapshots := make(map[serviceKind]*Snapshot, len(r.coordinators))
	for kind, coordinator := range r.coordinators {
		if coordinator != nil {
			snapshots[kind] = coordinator.Snapshot()
		}
	}

	readings := make([]Reading, 0, len(readingDefinitions))
	for _, def := range readingDefinitions {
		if !r.Enabled(def.Key) {
			continue
		}
		reading := Reading{
			UniqueID: r.UniqueID(def.Key),
			Key:      def.Key,
			Name:     def.Name,
			Unit:     def.Unit,
		}
		if snapshot := snapshots[readingServices[def.Key]]; snapshot != nil {
			if value, ok := snapshot.Values[def.JSONKey]; ok {
				attrs := snapshot.Attributes[def.JSONKey]
				reading.Value = value
				reading.Attributes = &attrs
			}
		}
		readings = append(readings, reading)
	}
	return readings
}
