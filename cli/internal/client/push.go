// Package client wraps the push service HTTP API for the CLI.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type PushClient struct {
	baseURL string
	client  *http.Client
}

func NewPushClient(baseURL string) *PushClient {
	return &PushClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// apiError is the service's error envelope.
type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Record is one listed canonical record. Degraded entries carry only Raw.
type Record struct {
	ReceivedAt string `json:"receivedAt"`
	Origin     string `json:"origin"`
	Payload    any    `json:"payload"`
	Raw        string `json:"raw,omitempty"`
	Key        string `json:"key,omitempty"`
}

type RecordList struct {
	Count int      `json:"count"`
	Items []Record `json:"items"`
}

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

type DeviceList struct {
	Data  []Device `json:"data"`
	Count int      `json:"count"`
}

type DeviceStats struct {
	DeviceNo      string     `json:"deviceNo"`
	DataCount     int64      `json:"dataCount"`
	FirstDataTime *time.Time `json:"firstDataTime"`
	LastDataTime  *time.Time `json:"lastDataTime"`
	MinFlow       *float64   `json:"minFlow"`
	MaxFlow       *float64   `json:"maxFlow"`
	AvgFlow       *float64   `json:"avgFlow"`
}

// Push sends a JSON payload to the strict ingestion endpoint.
func (c *PushClient) Push(payload []byte) error {
	return c.post("/api/v1/push", "application/json", payload)
}

// PushRaw sends an arbitrary body to the tolerant ingestion endpoint.
func (c *PushClient) PushRaw(contentType string, body []byte) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.post("/api/v1/push/raw", contentType, body)
}

func (c *PushClient) post(path, contentType string, body []byte) error {
	resp, err := c.client.Post(c.baseURL+path, contentType, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}
	return nil
}

// ListRecords fetches recently stored records.
func (c *PushClient) ListRecords() (*RecordList, error) {
	var list RecordList
	if err := c.get("/api/v1/records", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListDevices fetches registered devices, optionally filtered.
func (c *PushClient) ListDevices(search, status string) (*DeviceList, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	if status != "" {
		query.Set("status", status)
	}
	path := "/api/v1/devices"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var list DeviceList
	if err := c.get(path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateDevice registers or replaces a device.
func (c *PushClient) CreateDevice(deviceNo, imei, alias, location string) error {
	payload := map[string]any{"deviceNo": deviceNo}
	if imei != "" {
		payload["imei"] = imei
	}
	if alias != "" {
		payload["alias"] = alias
	}
	if location != "" {
		payload["location"] = location
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.post("/api/v1/devices", "application/json", body)
}

// DeviceStats fetches reading aggregates for one device.
func (c *PushClient) DeviceStats(deviceNo string) (*DeviceStats, error) {
	var stats DeviceStats
	if err := c.get("/api/v1/devices/"+url.PathEscape(deviceNo)+"/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *PushClient) get(path string, out any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *PushClient) decodeError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		if apiErr.Detail != "" {
			return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Detail)
		}
		return fmt.Errorf("%s", apiErr.Error)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}
