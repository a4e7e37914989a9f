package keys

import (
	"strings"
	"testing"
	"time"
)

func TestDerive(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	key := Derive("D123", at)

	if key != "push/D123/1700000000123.json" {
		t.Errorf("Unexpected key: %s", key)
	}
}

func TestDerive_EscapesDeviceSegment(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	tests := []struct {
		name   string
		device string
		want   string
	}{
		{
			name:   "path separator",
			device: "../etc/passwd",
			want:   "push/..%2Fetc%2Fpasswd/1700000000000.json",
		},
		{
			name:   "spaces",
			device: "meter 7",
			want:   "push/meter%207/1700000000000.json",
		},
		{
			name:   "plain identifier unchanged",
			device: "A-1_b.2",
			want:   "push/A-1_b.2/1700000000000.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.device, at)
			if got != tt.want {
				t.Errorf("Derive(%q) = %q, want %q", tt.device, got, tt.want)
			}
			// The escaped segment must not reintroduce a separator.
			inner := strings.TrimPrefix(got, Prefix)
			if strings.Count(inner, "/") != 1 {
				t.Errorf("Device segment escaped its namespace: %q", got)
			}
		})
	}
}

func TestDerive_ChronologicalOrder(t *testing.T) {
	base := time.UnixMilli(1700000000000)

	earlier := Derive("D1", base)
	later := Derive("D1", base.Add(time.Second))

	if !(earlier < later) {
		t.Errorf("Keys for the same device must sort chronologically: %q >= %q", earlier, later)
	}
}

func TestDerive_SameMillisecondCollides(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	if Derive("D1", at) != Derive("D1", at.Add(500*time.Microsecond)) {
		t.Error("Keys within the same millisecond should collide")
	}
}
