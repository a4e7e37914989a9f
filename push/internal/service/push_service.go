// Package service orchestrates the ingestion pipeline: normalize the decoded
// payload into a canonical record, derive the device-scoped storage key, and
// write the record to the blob store, with optional best-effort fan-out to
// the message bus and the readings mirror.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowsight-systems/flowsight-stack/common/logging"
	"github.com/flowsight-systems/flowsight-stack/common/messaging"
	"github.com/flowsight-systems/flowsight-stack/push/internal/blob"
	"github.com/flowsight-systems/flowsight-stack/push/internal/keys"
	"github.com/flowsight-systems/flowsight-stack/push/internal/metrics"
	"github.com/flowsight-systems/flowsight-stack/push/internal/models"
	"github.com/flowsight-systems/flowsight-stack/push/internal/registry"
)

// fanoutTimeout bounds the post-store mirror and publish work, which runs
// detached from the request.
const fanoutTimeout = 5 * time.Second

type PushService struct {
	store     blob.Store
	registry  registry.Repository  // optional
	publisher messaging.Publisher  // optional
	logger    *logging.Logger
	now       func() time.Time

	stats      models.IngestStats
	statsMutex sync.RWMutex
}

// NewPushService wires the pipeline. registry and publisher may be nil; the
// pipeline then stores records without mirroring or fan-out.
func NewPushService(store blob.Store, reg registry.Repository, pub messaging.Publisher, logger *logging.Logger) *PushService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PushService{
		store:     store,
		registry:  reg,
		publisher: pub,
		logger:    logger,
		now:       time.Now,
	}
}

// Ingest persists one decoded payload and returns the storage key. The
// arrival instant is read once and drives both the record timestamp and the
// key. A store failure is the only error path; mirror and publish run
// fire-and-forget afterwards and never fail the push.
func (s *PushService) Ingest(ctx context.Context, payload any, origin string) (string, error) {
	now := s.now()
	record := models.NewCanonicalRecord(payload, origin, now)
	device := models.DeviceID(payload)
	key := keys.Derive(device, now)

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	timer := prometheus.NewTimer(metrics.StoreDuration)
	err = s.store.Put(ctx, key, data, "application/json")
	timer.ObserveDuration()
	if err != nil {
		metrics.StoreErrors.Inc()
		s.updateStats(0, false)
		return "", fmt.Errorf("store record: %w", err)
	}
	s.updateStats(len(data), true)

	s.logger.InfoContext(ctx, "record stored",
		logging.Device(device),
		logging.Key(key),
		slog.Int("bytes", len(data)),
	)

	if s.registry != nil || s.publisher != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
			defer cancel()
			s.fanout(ctx, device, key, record)
		}()
	}

	return key, nil
}

// fanout publishes the stored-record event and mirrors the reading. Both are
// best-effort: failures are logged and counted, never surfaced to the device.
func (s *PushService) fanout(ctx context.Context, device, key string, record models.CanonicalRecord) {
	if s.publisher != nil {
		event := models.StoredRecordEvent{Key: key, Device: device, Record: record}
		data, err := json.Marshal(event)
		if err == nil {
			err = s.publisher.Publish(ctx, messaging.SubjectPushRecordsStored, data)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "publish stored-record event failed",
				logging.Key(key), logging.Error(err))
		}
	}

	if s.registry != nil {
		s.mirror(ctx, record.Payload)
	}
}

// mirror upserts the device and inserts the reading into the registry.
func (s *PushService) mirror(ctx context.Context, payload any) {
	reading, err := models.ReadingFromPayload(payload)
	if err != nil {
		s.logger.WarnContext(ctx, "reading not mirrorable", logging.Error(err))
		return
	}
	if reading == nil {
		return
	}

	if err := s.registry.EnsureDevice(ctx, reading.DeviceNo, reading.IMEI); err != nil {
		metrics.MirrorErrors.Inc()
		s.logger.WarnContext(ctx, "device registration failed",
			logging.Device(reading.DeviceNo), logging.Error(err))
		return
	}
	if err := s.registry.InsertReading(ctx, reading); err != nil {
		metrics.MirrorErrors.Inc()
		s.logger.WarnContext(ctx, "reading mirror failed",
			logging.Device(reading.DeviceNo), logging.Error(err))
	}
}

// ListRecords enumerates recent keys under the push namespace and reads each
// back. Entries whose stored bytes no longer parse as JSON degrade into
// {"raw", "key"} items rather than aborting the listing; any store failure
// aborts with no partial results.
func (s *PushService) ListRecords(ctx context.Context) (*models.RecordList, error) {
	storedKeys, err := s.store.List(ctx, keys.Prefix, keys.MaxListKeys)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	items := make([]any, 0, len(storedKeys))
	for _, key := range storedKeys {
		data, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read record %s: %w", key, err)
		}

		var item any
		if err := json.Unmarshal(data, &item); err != nil {
			item = map[string]any{"raw": string(data), "key": key}
		}
		items = append(items, item)
	}

	metrics.RecordsListedTotal.Add(float64(len(items)))
	return &models.RecordList{Count: len(items), Items: items}, nil
}

func (s *PushService) updateStats(bytes int, success bool) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.TotalPushes++
	s.stats.TotalBytes += int64(bytes)
	s.stats.LastPush = time.Now()

	if success {
		s.stats.StoredRecords++
	} else {
		s.stats.FailedPushes++
	}
}

func (s *PushService) GetStats() models.IngestStats {
	s.statsMutex.RLock()
	defer s.statsMutex.RUnlock()
	return s.stats
}
