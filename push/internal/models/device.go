package models

import "time"

// Device is a registered water meter. DataCount and LastData are computed
// from the readings mirror when listing.
type Device struct {
	DeviceNo  string     `json:"deviceNo"`
	IMEI      *string    `json:"imei"`
	Alias     *string    `json:"alias"`
	Location  *string    `json:"location"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	DataCount int64      `json:"data_count"`
	LastData  *time.Time `json:"last_data"`
}

// DeviceInput is the create/update request body. Pointer fields distinguish
// "absent" from "explicitly cleared" on partial updates.
type DeviceInput struct {
	DeviceNo string  `json:"deviceNo"`
	IMEI     *string `json:"imei"`
	Alias    *string `json:"alias"`
	Location *string `json:"location"`
	IsActive *bool   `json:"is_active"`
}

// DeviceUpsertResult reports the outcome of a create-or-replace.
type DeviceUpsertResult struct {
	DeviceNo  string    `json:"deviceNo"`
	CreatedAt time.Time `json:"created_at"`
	IsNew     bool      `json:"is_new"`
}

// DeviceList is the device listing response.
type DeviceList struct {
	Data  []*Device `json:"data"`
	Count int       `json:"count"`
}

// DeviceStats aggregates the readings mirrored for one device. Flow fields
// are nil when the device has no readings with a parsable flow.
type DeviceStats struct {
	DeviceNo      string     `json:"deviceNo"`
	DataCount     int64      `json:"dataCount"`
	FirstDataTime *time.Time `json:"firstDataTime"`
	LastDataTime  *time.Time `json:"lastDataTime"`
	MinFlow       *float64   `json:"minFlow"`
	MaxFlow       *float64   `json:"maxFlow"`
	AvgFlow       *float64   `json:"avgFlow"`
}
