package models

import (
	"fmt"
	"strconv"
	"time"
)

// updateTimeLayout is the wall-clock format meters use when they don't push
// an epoch-millisecond timestamp.
const updateTimeLayout = "2006-01-02 15:04:05"

// Reading is one mirrored meter reading. Numeric fields are pointers because
// meters push them as strings and unparsable values are stored as NULL
// rather than dropped with the whole reading.
type Reading struct {
	ID                int64      `json:"id,omitempty"`
	DeviceNo          string     `json:"deviceNo"`
	IMEI              *string    `json:"imei"`
	BatteryVoltage    *float64   `json:"batteryVoltage"`
	FreezeDateFlow    *float64   `json:"freezeDateFlow"`
	InstantaneousFlow *float64   `json:"instantaneousFlow"`
	Pressure          *float64   `json:"pressure"`
	ReverseFlow       *float64   `json:"reverseFlow"`
	SignalValue       *int       `json:"signalValue"`
	StartFrequency    *int       `json:"startFrequency"`
	Temperature       *float64   `json:"temperature"`
	TotalFlow         *float64   `json:"totalFlow"`
	ValveStatus       *string    `json:"valveStatu"`
	UpdateTime        time.Time  `json:"updateTime"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

// ReadingFromPayload extracts a mirrorable reading from a decoded push
// payload. It returns (nil, nil) when the payload is not an object or has no
// deviceNo — such pushes are stored in the blob store but not mirrored. An
// error means the payload names a device but its updateTime is missing or
// unparsable, so the reading is skipped.
//
// Field coercion is deliberately tolerant: meters push numbers as strings
// and occasionally garble them, and a NULL column beats a lost reading.
func ReadingFromPayload(payload any) (*Reading, error) {
	fields, ok := payload.(map[string]any)
	if !ok {
		return nil, nil
	}

	deviceNo := stringify(fields["deviceNo"])
	if deviceNo == "" {
		return nil, nil
	}

	updateTime, err := parseUpdateTime(fields["updateTime"])
	if err != nil {
		return nil, fmt.Errorf("reading for device %s: %w", deviceNo, err)
	}

	r := &Reading{
		DeviceNo:          deviceNo,
		IMEI:              toStringPtr(fields["imei"]),
		BatteryVoltage:    toFloat(fields["batteryVoltage"]),
		FreezeDateFlow:    toFloat(fields["freezeDateFlow"]),
		InstantaneousFlow: toFloat(fields["instantaneousFlow"]),
		Pressure:          toFloat(fields["pressure"]),
		ReverseFlow:       toFloat(fields["reverseFlow"]),
		SignalValue:       toInt(fields["signalValue"]),
		StartFrequency:    toInt(fields["startFrequency"]),
		Temperature:       toFloat(fields["temprature"]), // field name as pushed by the meters
		TotalFlow:         toFloat(fields["totalFlow"]),
		ValveStatus:       toStringPtr(fields["valveStatu"]),
		UpdateTime:        updateTime,
	}
	return r, nil
}

// parseUpdateTime accepts an epoch-millisecond number or a
// "2006-01-02 15:04:05" wall-clock string, with RFC 3339 as a fallback.
func parseUpdateTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case float64:
		return time.UnixMilli(int64(t)), nil
	case int64:
		return time.UnixMilli(t), nil
	case string:
		if ms, err := strconv.ParseInt(t, 10, 64); err == nil {
			return time.UnixMilli(ms), nil
		}
		if parsed, err := time.ParseInLocation(updateTimeLayout, t, time.Local); err == nil {
			return parsed, nil
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, nil
		}
		return time.Time{}, fmt.Errorf("unparsable updateTime %q", t)
	case nil:
		return time.Time{}, fmt.Errorf("missing updateTime")
	default:
		return time.Time{}, fmt.Errorf("updateTime has unsupported type %T", v)
	}
}

func toFloat(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return &f
		}
	}
	return nil
}

// toInt parses through float so "−88.0" style strings still land as ints,
// matching how the meters report signal values.
func toInt(v any) *int {
	if f := toFloat(v); f != nil {
		i := int(*f)
		return &i
	}
	return nil
}

func toStringPtr(v any) *string {
	if s, ok := v.(string); ok && s != "" {
		return &s
	}
	return nil
}
