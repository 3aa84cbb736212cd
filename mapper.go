package main

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// telemetryField binds a reading key to its path inside a telemetry entry
type telemetryField struct {
	key  string
	path string
}

var inverterTelemetryFields = []telemetryField{
	{key: "L1Data_acVoltage", path: "L1Data.acVoltage"},
	{key: "totalActivePower", path: "totalActivePower"},
	{key: "powerLimit", path: "powerLimit"},
	{key: "totalEnergy", path: "totalEnergy"},
	{key: "inverterMode", path: "inverterMode"},
}

// mapInverterDetails turns the data object of an equipment data response
// into a snapshot built from the most recent telemetry entry.
// A missing or empty telemetry list yields an empty snapshot.
func mapInverterDetails(details gjson.Result) (*Snapshot, error) {
	if !details.IsObject() {
		return nil, &UpdateError{Reason: fmt.Sprintf("inverter data is %s, not an object", details.Type)}
	}

	snapshot := newSnapshot()

	telemetries := details.Get("telemetries")
	if !telemetries.Exists() || telemetries.Type == gjson.Null {
		return snapshot, nil
	}
	if !telemetries.IsArray() {
		return nil, &UpdateError{Reason: "telemetries is not a list"}
	}

	entries := telemetries.Array()
	if len(entries) == 0 {
		return snapshot, nil
	}

	// the API returns samples in chronological order
	last := entries[len(entries)-1]
	if !last.IsObject() {
		return nil, &UpdateError{Reason: "telemetry entry is not an object"}
	}

	date := last.Get("date")
	if !date.Exists() || date.Type == gjson.Null {
		return nil, &UpdateError{Reason: "missing inverter telemetry field date"}
	}
	attributes := ReadingAttributes{Date: date.String()}

	for _, field := range inverterTelemetryFields {
		value, err := readingValue(last.Get(field.path))
		if err != nil {
			return nil, &UpdateError{
				Reason: fmt.Sprintf("missing inverter telemetry field %s", field.path),
				Err:    err,
			}
		}
		snapshot.Values[field.key] = value
		snapshot.Attributes[field.key] = attributes
	}

	return snapshot, nil
}

// readingValue converts a scalar JSON value into a float64, string or bool
func readingValue(r gjson.Result) (any, error) {
	if !r.Exists() {
		return nil, fmt.Errorf("field not present")
	}
	switch r.Type {
	case gjson.Number:
		return r.Float(), nil
	case gjson.String:
		return r.String(), nil
	case gjson.True, gjson.False:
		return r.Bool(), nil
	case gjson.Null:
		return nil, fmt.Errorf("field is null")
	default:
		return nil, fmt.Errorf("field is not a scalar value")
	}
}
