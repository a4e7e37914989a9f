// Package models defines the data shapes of the push service: the canonical
// record persisted for every push, device identity derivation, and the
// registry types mirrored into Postgres.
package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// UnknownDevice is the device identifier used when a payload carries none of
// the known device aliases.
const UnknownDevice = "unknown"

// deviceAliases is the ordered list of payload fields checked for a device
// identifier. First match wins.
var deviceAliases = []string{"deviceNo", "device_id", "device"}

// CanonicalRecord is the normalized wrapper persisted for every push: the
// arrival instant, the pushing client's address, and the decoded payload
// exactly as received. Payload is never re-typed or mutated after decoding,
// so downstream consumers see what the device actually sent.
type CanonicalRecord struct {
	ReceivedAt string `json:"receivedAt"`
	Origin     string `json:"origin"`
	Payload    any    `json:"payload"`
}

// NewCanonicalRecord stamps the arrival instant in UTC and wraps the payload
// verbatim. The same instant drives the storage key, so callers pass it in.
func NewCanonicalRecord(payload any, origin string, now time.Time) CanonicalRecord {
	return CanonicalRecord{
		ReceivedAt: now.UTC().Format(time.RFC3339Nano),
		Origin:     origin,
		Payload:    payload,
	}
}

// DeviceID derives the device identifier from a decoded payload. It checks
// the alias fields in priority order and stringifies the first usable value;
// payloads that are not objects, or carry no alias, map to UnknownDevice.
// Total by construction: never fails, never returns an empty string.
func DeviceID(payload any) string {
	fields, ok := payload.(map[string]any)
	if !ok {
		return UnknownDevice
	}
	for _, alias := range deviceAliases {
		v, ok := fields[alias]
		if !ok {
			continue
		}
		if s := stringify(v); s != "" {
			return s
		}
	}
	return UnknownDevice
}

// stringify renders a scalar payload value as a device identifier segment.
// Numbers render in plain notation (no exponent), since meters frequently
// push numeric device numbers. Non-scalar values yield "" so the alias chain
// moves on.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// PushResponse acknowledges a stored push.
type PushResponse struct {
	OK bool `json:"ok"`
}

// RecordList is the read-back listing response. Items are parsed canonical
// records, or {"raw": ..., "key": ...} maps for entries whose stored bytes
// no longer parse as JSON. Count includes degraded items.
type RecordList struct {
	Count int   `json:"count"`
	Items []any `json:"items"`
}

// StoredRecordEvent is published on the message bus after each successful
// store, one message per record.
type StoredRecordEvent struct {
	Key    string          `json:"key"`
	Device string          `json:"device"`
	Record CanonicalRecord `json:"record"`
}

// IngestStats tracks per-process ingestion counters for the readiness probe.
type IngestStats struct {
	TotalPushes   int64     `json:"total_pushes"`
	StoredRecords int64     `json:"stored_records"`
	FailedPushes  int64     `json:"failed_pushes"`
	TotalBytes    int64     `json:"total_bytes"`
	LastPush      time.Time `json:"last_push"`
}
