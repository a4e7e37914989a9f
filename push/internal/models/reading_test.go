package models

import (
	"testing"
	"time"
)

func TestReadingFromPayload(t *testing.T) {
	payload := map[string]any{
		"deviceNo":          "88100912",
		"imei":              "867726030001234",
		"batteryVoltage":    "3.61",
		"freezeDateFlow":    "100.0",
		"instantaneousFlow": "0.42",
		"pressure":          "0.30",
		"reverseFlow":       "0.0",
		"signalValue":       "-88",
		"startFrequency":    "2",
		"temprature":        "18.5",
		"totalFlow":         "1234.56",
		"valveStatu":        "open",
		"updateTime":        "1700000000123",
	}

	reading, err := ReadingFromPayload(payload)
	if err != nil {
		t.Fatalf("ReadingFromPayload failed: %v", err)
	}
	if reading == nil {
		t.Fatal("Expected a reading, got nil")
	}

	if reading.DeviceNo != "88100912" {
		t.Errorf("Expected deviceNo 88100912, got %s", reading.DeviceNo)
	}
	if reading.IMEI == nil || *reading.IMEI != "867726030001234" {
		t.Errorf("Unexpected imei: %v", reading.IMEI)
	}
	if reading.BatteryVoltage == nil || *reading.BatteryVoltage != 3.61 {
		t.Errorf("Unexpected batteryVoltage: %v", reading.BatteryVoltage)
	}
	if reading.SignalValue == nil || *reading.SignalValue != -88 {
		t.Errorf("Unexpected signalValue: %v", reading.SignalValue)
	}
	if reading.Temperature == nil || *reading.Temperature != 18.5 {
		t.Errorf("Unexpected temperature: %v", reading.Temperature)
	}
	if reading.ValveStatus == nil || *reading.ValveStatus != "open" {
		t.Errorf("Unexpected valveStatus: %v", reading.ValveStatus)
	}
	if !reading.UpdateTime.Equal(time.UnixMilli(1700000000123)) {
		t.Errorf("Unexpected updateTime: %v", reading.UpdateTime)
	}
}

func TestReadingFromPayload_NotMirrorable(t *testing.T) {
	tests := []struct {
		name    string
		payload any
	}{
		{"scalar payload", "text"},
		{"array payload", []any{1, 2}},
		{"no deviceNo", map[string]any{"device_id": "D1", "updateTime": "1700000000000"}},
		{"nil payload", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := ReadingFromPayload(tt.payload)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if reading != nil {
				t.Errorf("Expected nil reading, got %+v", reading)
			}
		})
	}
}

func TestReadingFromPayload_BadUpdateTime(t *testing.T) {
	tests := []struct {
		name       string
		updateTime any
	}{
		{"missing", nil},
		{"garbage string", "soon"},
		{"wrong type", []any{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := map[string]any{"deviceNo": "D1"}
			if tt.updateTime != nil {
				payload["updateTime"] = tt.updateTime
			}
			reading, err := ReadingFromPayload(payload)
			if err == nil {
				t.Error("Expected an error")
			}
			if reading != nil {
				t.Errorf("Expected nil reading, got %+v", reading)
			}
		})
	}
}

func TestParseUpdateTime_Formats(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Time
	}{
		{
			name:  "epoch millis number",
			value: float64(1700000000123),
			want:  time.UnixMilli(1700000000123),
		},
		{
			name:  "epoch millis string",
			value: "1700000000123",
			want:  time.UnixMilli(1700000000123),
		},
		{
			name:  "wall clock string",
			value: "2026-03-14 09:26:53",
			want:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local),
		},
		{
			name:  "rfc3339 fallback",
			value: "2026-03-14T09:26:53Z",
			want:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseUpdateTime(tt.value)
			if err != nil {
				t.Fatalf("parseUpdateTime failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseUpdateTime(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestToFloat_Tolerant(t *testing.T) {
	if v := toFloat("not a number"); v != nil {
		t.Errorf("Expected nil for garbage, got %v", *v)
	}
	if v := toFloat(nil); v != nil {
		t.Errorf("Expected nil for missing, got %v", *v)
	}
	if v := toFloat("12.5"); v == nil || *v != 12.5 {
		t.Errorf("Expected 12.5, got %v", v)
	}
	if v := toFloat(float64(7)); v == nil || *v != 7 {
		t.Errorf("Expected 7, got %v", v)
	}
}

func TestToInt_ThroughFloat(t *testing.T) {
	if v := toInt("-88.0"); v == nil || *v != -88 {
		t.Errorf("Expected -88, got %v", v)
	}
	if v := toInt(float64(3)); v == nil || *v != 3 {
		t.Errorf("Expected 3, got %v", v)
	}
	if v := toInt("open"); v != nil {
		t.Errorf("Expected nil for garbage, got %v", *v)
	}
}
