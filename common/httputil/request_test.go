package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name         string
		setupRequest func() *http.Request
		expectedIP   string
	}{
		{
			name: "X-Forwarded-For with single IP",
			setupRequest: func() *http.Request {
				req := httptest.NewRequest("POST", "/api/v1/push", nil)
				req.Header.Set("X-Forwarded-For", "203.0.113.195")
				return req
			},
			expectedIP: "203.0.113.195",
		},
		{
			name: "X-Forwarded-For with multiple IPs",
			setupRequest: func() *http.Request {
				req := httptest.NewRequest("POST", "/api/v1/push", nil)
				req.Header.Set("X-Forwarded-For", "203.0.113.195, 70.41.3.18, 150.172.238.178")
				return req
			},
			expectedIP: "203.0.113.195",
		},
		{
			name: "X-Forwarded-For with spaces",
			setupRequest: func() *http.Request {
				req := httptest.NewRequest("POST", "/api/v1/push", nil)
				req.Header.Set("X-Forwarded-For", "  203.0.113.195  , 70.41.3.18")
				return req
			},
			expectedIP: "203.0.113.195",
		},
		{
			name: "X-Real-IP when no X-Forwarded-For",
			setupRequest: func() *http.Request {
				req := httptest.NewRequest("POST", "/api/v1/push", nil)
				req.Header.Set("X-Real-IP", "198.51.100.42")
				return req
			},
			expectedIP: "198.51.100.42",
		},
		{
			name: "X-Forwarded-For takes precedence over X-Real-IP",
			setupRequest: func() *http.Request {
				req := httptest.NewRequest("POST", "/api/v1/push", nil)
				req.Header.Set("X-Forwarded-For", "203.0.113.195")
				req.Header.Set("X-Real-IP", "198.51.100.42")
				return req
			},
			expectedIP: "203.0.113.195",
		},
		{
			name: "RemoteAddr when no proxy headers",
			setupRequest: func() *http.Request {
				req := httptest.NewRequest("POST", "/api/v1/push", nil)
				req.RemoteAddr = "192.0.2.1:54321"
				return req
			},
			expectedIP: "192.0.2.1:54321",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetClientIP(tt.setupRequest())
			if got != tt.expectedIP {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expectedIP)
			}
		})
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		defaultVal int
		expected   int
	}{
		{name: "empty uses default", value: "", defaultVal: 10, expected: 10},
		{name: "valid integer", value: "25", defaultVal: 10, expected: 25},
		{name: "invalid uses default", value: "abc", defaultVal: 10, expected: 10},
		{name: "negative parses", value: "-5", defaultVal: 10, expected: -5},
		{name: "zero parses", value: "0", defaultVal: 10, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseIntParam(tt.value, tt.defaultVal)
			if got != tt.expected {
				t.Errorf("ParseIntParam(%q, %d) = %d, want %d", tt.value, tt.defaultVal, got, tt.expected)
			}
		})
	}
}
