// Package registry persists the device registry and the readings mirror.
// The registry is optional: the push pipeline stores every record in the
// blob store regardless, and mirrors readings here only when a database is
// configured.
package registry

import (
	"context"
	"errors"

	"github.com/flowsight-systems/flowsight-stack/push/internal/models"
)

var ErrDeviceNotFound = errors.New("device not found")

type Repository interface {
	// EnsureDevice registers a device on first contact. An existing row
	// keeps its imei unless the push carries one.
	EnsureDevice(ctx context.Context, deviceNo string, imei *string) error

	// UpsertDevice creates or fully replaces a device.
	UpsertDevice(ctx context.Context, input *models.DeviceInput) (*models.DeviceUpsertResult, error)

	// BulkUpsertDevices creates or replaces a batch of devices.
	BulkUpsertDevices(ctx context.Context, inputs []models.DeviceInput) error

	// UpdateDevice partially updates a device; nil fields are left alone.
	UpdateDevice(ctx context.Context, deviceNo string, input *models.DeviceInput) error

	// ListDevices returns devices with per-device reading counts, newest
	// first. search matches device_no, imei, or alias; status filters
	// "active"/"inactive".
	ListDevices(ctx context.Context, search, status string) ([]*models.Device, error)

	// DeviceStats aggregates the readings mirrored for one device.
	DeviceStats(ctx context.Context, deviceNo string) (*models.DeviceStats, error)

	// InsertReading mirrors one reading.
	InsertReading(ctx context.Context, reading *models.Reading) error

	// LatestReadings returns the most recent readings across all devices,
	// ordered by update time descending.
	LatestReadings(ctx context.Context, limit int) ([]*models.Reading, error)
}
