package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPushClient(t *testing.T) {
	client := NewPushClient("http://localhost:8000")

	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8000", client.baseURL)
	assert.NotNil(t, client.client)
	assert.Equal(t, 10*time.Second, client.client.Timeout)
}

func TestPush_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/push", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&payload)
		require.NoError(t, err)
		assert.Equal(t, "88100912", payload["deviceNo"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewPushClient(server.URL)
	err := client.Push([]byte(`{"deviceNo":"88100912"}`))
	assert.NoError(t, err)
}

func TestPush_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Blob store unavailable","detail":"connection refused"}`))
	}))
	defer server.Close()

	client := NewPushClient(server.URL)
	err := client.Push([]byte(`{"deviceNo":"88100912"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Blob store unavailable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPushRaw_ContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/push/raw", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewPushClient(server.URL)
	err := client.PushRaw("application/x-www-form-urlencoded", []byte("deviceNo=88100912"))
	assert.NoError(t, err)
}

func TestListRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/records", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":1,"items":[{"receivedAt":"2026-03-14T01:26:53Z","origin":"10.0.0.7","payload":{"deviceNo":"D1"}}]}`))
	}))
	defer server.Close()

	client := NewPushClient(server.URL)
	list, err := client.ListRecords()
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "2026-03-14T01:26:53Z", list.Items[0].ReceivedAt)
	assert.Equal(t, "10.0.0.7", list.Items[0].Origin)
}

func TestListDevices_QueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/devices", r.URL.Path)
		assert.Equal(t, "8810", r.URL.Query().Get("search"))
		assert.Equal(t, "active", r.URL.Query().Get("status"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"deviceNo":"88100912","is_active":true}],"count":1}`))
	}))
	defer server.Close()

	client := NewPushClient(server.URL)
	list, err := client.ListDevices("8810", "active")
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "88100912", list.Data[0].DeviceNo)
	assert.True(t, list.Data[0].IsActive)
}

func TestCreateDevice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/devices", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "88100912", payload["deviceNo"])
		assert.Equal(t, "plant-east", payload["alias"])
		// Blank optional fields are omitted, not sent empty.
		assert.NotContains(t, payload, "location")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"msg":"OK","deviceNo":"88100912","is_new":true}`))
	}))
	defer server.Close()

	client := NewPushClient(server.URL)
	err := client.CreateDevice("88100912", "867726030001234", "plant-east", "")
	assert.NoError(t, err)
}

func TestDeviceStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/devices/88100912/stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"deviceNo":"88100912","dataCount":42,"avgFlow":0.5}`))
	}))
	defer server.Close()

	client := NewPushClient(server.URL)
	stats, err := client.DeviceStats("88100912")
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.DataCount)
	require.NotNil(t, stats.AvgFlow)
	assert.Equal(t, 0.5, *stats.AvgFlow)
}

func TestDeviceStats_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Device not found"}`))
	}))
	defer server.Close()

	client := NewPushClient(server.URL)
	_, err := client.DeviceStats("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Device not found")
}
