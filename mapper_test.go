package main

import (
	"errors"
	"testing"

	"github.com/tidwall/gjson"
)

func TestMapInverterDetails_FullTelemetry(t *testing.T) {
	details := gjson.Parse(`{
		"count": 1,
		"telemetries": [{
			"date": "2024-05-01 12:00:00",
			"totalActivePower": 1500.5,
			"powerLimit": 100,
			"totalEnergy": 1234567,
			"inverterMode": "MPPT",
			"L1Data": {"acCurrent": 6.5, "acVoltage": 231.2, "acFrequency": 50.01}
		}]
	}`)

	snapshot, err := mapInverterDetails(details)
	if err != nil {
		t.Fatalf("mapInverterDetails() error = %v", err)
	}

	if snapshot.Len() != 5 {
		t.Fatalf("mapInverterDetails() got %d readings, want 5", snapshot.Len())
	}

	want := map[string]any{
		"L1Data_acVoltage": 231.2,
		"totalActivePower": 1500.5,
		"powerLimit":       100.0,
		"totalEnergy":      1234567.0,
		"inverterMode":     "MPPT",
	}
	for key, value := range want {
		if got := snapshot.Values[key]; got != value {
			t.Errorf("Values[%s] = %v, want %v", key, got, value)
		}
		if got := snapshot.Attributes[key].Date; got != "2024-05-01 12:00:00" {
			t.Errorf("Attributes[%s].Date = %s, want 2024-05-01 12:00:00", key, got)
		}
	}
}

func TestMapInverterDetails_NoData(t *testing.T) {
	tests := []struct {
		name    string
		details string
	}{
		{name: "absent telemetry list", details: `{"count": 0}`},
		{name: "empty telemetry list", details: `{"count": 0, "telemetries": []}`},
		{name: "null telemetry list", details: `{"telemetries": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot, err := mapInverterDetails(gjson.Parse(tt.details))
			if err != nil {
				t.Fatalf("mapInverterDetails() unexpected error: %v", err)
			}
			if snapshot == nil {
				t.Fatal("mapInverterDetails() returned nil snapshot")
			}
			if snapshot.Len() != 0 || len(snapshot.Attributes) != 0 {
				t.Errorf("mapInverterDetails() got %d readings, want empty snapshot", snapshot.Len())
			}
		})
	}
}

func TestMapInverterDetails_MissingField(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{
			name:  "missing acVoltage",
			entry: `{"date": "2024-05-01 12:00:00", "totalActivePower": 1.0, "powerLimit": 100, "totalEnergy": 5, "inverterMode": "MPPT", "L1Data": {"acCurrent": 1.2}}`,
		},
		{
			name:  "missing L1Data",
			entry: `{"date": "2024-05-01 12:00:00", "totalActivePower": 1.0, "powerLimit": 100, "totalEnergy": 5, "inverterMode": "MPPT"}`,
		},
		{
			name:  "L1Data not an object",
			entry: `{"date": "2024-05-01 12:00:00", "totalActivePower": 1.0, "powerLimit": 100, "totalEnergy": 5, "inverterMode": "MPPT", "L1Data": 230}`,
		},
		{
			name:  "missing totalActivePower",
			entry: `{"date": "2024-05-01 12:00:00", "powerLimit": 100, "totalEnergy": 5, "inverterMode": "MPPT", "L1Data": {"acVoltage": 230}}`,
		},
		{
			name:  "missing powerLimit",
			entry: `{"date": "2024-05-01 12:00:00", "totalActivePower": 1.0, "totalEnergy": 5, "inverterMode": "MPPT", "L1Data": {"acVoltage": 230}}`,
		},
		{
			name:  "missing totalEnergy",
			entry: `{"date": "2024-05-01 12:00:00", "totalActivePower": 1.0, "powerLimit": 100, "inverterMode": "MPPT", "L1Data": {"acVoltage": 230}}`,
		},
		{
			name:  "missing inverterMode",
			entry: `{"date": "2024-05-01 12:00:00", "totalActivePower": 1.0, "powerLimit": 100, "totalEnergy": 5, "L1Data": {"acVoltage": 230}}`,
		},
		{
			name:  "null inverterMode",
			entry: `{"date": "2024-05-01 12:00:00", "totalActivePower": 1.0, "powerLimit": 100, "totalEnergy": 5, "inverterMode": null, "L1Data": {"acVoltage": 230}}`,
		},
		{
			name:  "missing date",
			entry: `{"totalActivePower": 1.0, "powerLimit": 100, "totalEnergy": 5, "inverterMode": "MPPT", "L1Data": {"acVoltage": 230}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := gjson.Parse(`{"telemetries": [` + tt.entry + `]}`)
			snapshot, err := mapInverterDetails(details)
			if err == nil {
				t.Fatalf("mapInverterDetails() expected error, got snapshot %v", snapshot.Values)
			}
			var updateErr *UpdateError
			if !errors.As(err, &updateErr) {
				t.Errorf("mapInverterDetails() error = %T, want *UpdateError", err)
			}
		})
	}
}

func TestMapInverterDetails_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		details string
	}{
		{name: "data is a string", details: `"nope"`},
		{name: "data is null", details: `null`},
		{name: "telemetries is an object", details: `{"telemetries": {"date": "2024-05-01 12:00:00"}}`},
		{name: "telemetry entry is a number", details: `{"telemetries": [42]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mapInverterDetails(gjson.Parse(tt.details))
			var updateErr *UpdateError
			if !errors.As(err, &updateErr) {
				t.Errorf("mapInverterDetails() error = %v, want *UpdateError", err)
			}
		})
	}
}

func TestMapInverterDetails_LastTelemetryWins(t *testing.T) {
	details := gjson.Parse(`{
		"count": 2,
		"telemetries": [
			{"date": "2024-05-01 11:55:00", "totalActivePower": 900, "powerLimit": 90, "totalEnergy": 1000, "inverterMode": "THROTTLED", "L1Data": {"acVoltage": 229.0}},
			{"date": "2024-05-01 12:00:00", "totalActivePower": 1500, "powerLimit": 100, "totalEnergy": 1010, "inverterMode": "MPPT", "L1Data": {"acVoltage": 231.0}}
		]
	}`)

	snapshot, err := mapInverterDetails(details)
	if err != nil {
		t.Fatalf("mapInverterDetails() error = %v", err)
	}

	if got := snapshot.Values["totalActivePower"]; got != 1500.0 {
		t.Errorf("totalActivePower = %v, want 1500", got)
	}
	if got := snapshot.Values["inverterMode"]; got != "MPPT" {
		t.Errorf("inverterMode = %v, want MPPT", got)
	}
	if got := snapshot.Values["L1Data_acVoltage"]; got != 231.0 {
		t.Errorf("L1Data_acVoltage = %v, want 231", got)
	}
	for key, attrs := range snapshot.Attributes {
		if attrs.Date != "2024-05-01 12:00:00" {
			t.Errorf("Attributes[%s].Date = %s, want 2024-05-01 12:00:00", key, attrs.Date)
		}
	}
}

func TestMapInverterDetails_OnlyLastEntryChecked(t *testing.T) {
	// older samples may have a different shape; only the latest one is read
	details := gjson.Parse(`{
		"telemetries": [
			{"date": "2024-05-01 11:55:00"},
			{"date": "2024-05-01 12:00:00", "totalActivePower": 0, "powerLimit": 100, "totalEnergy": 1010, "inverterMode": "SLEEPING", "L1Data": {"acVoltage": 0}}
		]
	}`)

	snapshot, err := mapInverterDetails(details)
	if err != nil {
		t.Fatalf("mapInverterDetails() error = %v", err)
	}
	if snapshot.Len() != 5 {
		t.Errorf("mapInverterDetails() got %d readings, want 5", snapshot.Len())
	}
}
