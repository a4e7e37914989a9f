package registry

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flowsight-systems/flowsight-stack/push/internal/models"
)

// MemoryRepository is an in-process Repository for tests and database-less
// development.
type MemoryRepository struct {
	mu       sync.RWMutex
	devices  map[string]*models.Device
	readings []*models.Reading
	nextID   int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		devices: make(map[string]*models.Device),
		nextID:  1,
	}
}

func (r *MemoryRepository) EnsureDevice(_ context.Context, deviceNo string, imei *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, exists := r.devices[deviceNo]; exists {
		if imei != nil {
			d.IMEI = imei
		}
		return nil
	}
	r.devices[deviceNo] = &models.Device{
		DeviceNo:  deviceNo,
		IMEI:      imei,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *MemoryRepository) UpsertDevice(_ context.Context, input *models.DeviceInput) (*models.DeviceUpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.upsertLocked(input), nil
}

func (r *MemoryRepository) BulkUpsertDevices(_ context.Context, inputs []models.DeviceInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range inputs {
		r.upsertLocked(&inputs[i])
	}
	return nil
}

func (r *MemoryRepository) upsertLocked(input *models.DeviceInput) *models.DeviceUpsertResult {
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	d, exists := r.devices[input.DeviceNo]
	if !exists {
		d = &models.Device{DeviceNo: input.DeviceNo, CreatedAt: time.Now()}
		r.devices[input.DeviceNo] = d
	}
	d.IMEI = input.IMEI
	d.Alias = input.Alias
	d.Location = input.Location
	d.IsActive = active

	return &models.DeviceUpsertResult{
		DeviceNo:  d.DeviceNo,
		CreatedAt: d.CreatedAt,
		IsNew:     !exists,
	}
}

func (r *MemoryRepository) UpdateDevice(_ context.Context, deviceNo string, input *models.DeviceInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, exists := r.devices[deviceNo]
	if !exists {
		return ErrDeviceNotFound
	}
	if input.IMEI != nil {
		d.IMEI = input.IMEI
	}
	if input.Alias != nil {
		d.Alias = input.Alias
	}
	if input.Location != nil {
		d.Location = input.Location
	}
	if input.IsActive != nil {
		d.IsActive = *input.IsActive
	}
	return nil
}

func (r *MemoryRepository) ListDevices(_ context.Context, search, status string) ([]*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []*models.Device
	for _, d := range r.devices {
		if search != "" && !matchesSearch(d, search) {
			continue
		}
		switch strings.ToLower(status) {
		case "active":
			if !d.IsActive {
				continue
			}
		case "inactive":
			if d.IsActive {
				continue
			}
		}

		copied := *d
		copied.DataCount, copied.LastData = r.readingStatsLocked(d.DeviceNo)
		devices = append(devices, &copied)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].CreatedAt.After(devices[j].CreatedAt)
	})
	return devices, nil
}

func matchesSearch(d *models.Device, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(d.DeviceNo), needle) {
		return true
	}
	if d.IMEI != nil && strings.Contains(strings.ToLower(*d.IMEI), needle) {
		return true
	}
	if d.Alias != nil && strings.Contains(strings.ToLower(*d.Alias), needle) {
		return true
	}
	return false
}

func (r *MemoryRepository) readingStatsLocked(deviceNo string) (int64, *time.Time) {
	var (
		count int64
		last  *time.Time
	)
	for _, rd := range r.readings {
		if rd.DeviceNo != deviceNo {
			continue
		}
		count++
		if last == nil || rd.UpdateTime.After(*last) {
			t := rd.UpdateTime
			last = &t
		}
	}
	return count, last
}

func (r *MemoryRepository) DeviceStats(_ context.Context, deviceNo string) (*models.DeviceStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.devices[deviceNo]; !exists {
		return nil, ErrDeviceNotFound
	}

	stats := &models.DeviceStats{DeviceNo: deviceNo}
	var flowSum float64
	var flowCount int64

	for _, rd := range r.readings {
		if rd.DeviceNo != deviceNo {
			continue
		}
		stats.DataCount++

		t := rd.UpdateTime
		if stats.FirstDataTime == nil || t.Before(*stats.FirstDataTime) {
			first := t
			stats.FirstDataTime = &first
		}
		if stats.LastDataTime == nil || t.After(*stats.LastDataTime) {
			last := t
			stats.LastDataTime = &last
		}

		if rd.InstantaneousFlow == nil {
			continue
		}
		flow := *rd.InstantaneousFlow
		flowSum += flow
		flowCount++
		if stats.MinFlow == nil || flow < *stats.MinFlow {
			min := flow
			stats.MinFlow = &min
		}
		if stats.MaxFlow == nil || flow > *stats.MaxFlow {
			max := flow
			stats.MaxFlow = &max
		}
	}

	if flowCount > 0 {
		avg := flowSum / float64(flowCount)
		stats.AvgFlow = &avg
	}
	return stats, nil
}

func (r *MemoryRepository) InsertReading(_ context.Context, reading *models.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *reading
	copied.ID = r.nextID
	r.nextID++
	r.readings = append(r.readings, &copied)
	return nil
}

func (r *MemoryRepository) LatestReadings(_ context.Context, limit int) ([]*models.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	readings := make([]*models.Reading, len(r.readings))
	copy(readings, r.readings)
	sort.Slice(readings, func(i, j int) bool {
		return readings[i].UpdateTime.After(readings[j].UpdateTime)
	})

	if len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}
