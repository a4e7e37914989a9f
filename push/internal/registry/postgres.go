package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowsight-systems/flowsight-stack/push/internal/models"
)

const queryTimeout = 5 * time.Second

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) EnsureDevice(ctx context.Context, deviceNo string, imei *string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO devices (device_no, imei)
		VALUES ($1, $2)
		ON CONFLICT (device_no)
		DO UPDATE SET imei = COALESCE(EXCLUDED.imei, devices.imei)
	`

	if _, err := r.pool.Exec(ctx, query, deviceNo, imei); err != nil {
		return fmt.Errorf("failed to ensure device: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertDevice(ctx context.Context, input *models.DeviceInput) (*models.DeviceUpsertResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// xmax = 0 only holds for freshly inserted rows.
	query := `
		INSERT INTO devices (device_no, imei, alias, location, is_active)
		VALUES ($1, $2, $3, $4, COALESCE($5, TRUE))
		ON CONFLICT (device_no) DO UPDATE SET
			imei = EXCLUDED.imei,
			alias = EXCLUDED.alias,
			location = EXCLUDED.location,
			is_active = EXCLUDED.is_active,
			updated_at = CURRENT_TIMESTAMP
		RETURNING device_no, created_at, (xmax = 0) AS is_new
	`

	var result models.DeviceUpsertResult
	err := r.pool.QueryRow(ctx, query,
		input.DeviceNo, input.IMEI, input.Alias, input.Location, input.IsActive,
	).Scan(&result.DeviceNo, &result.CreatedAt, &result.IsNew)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device: %w", err)
	}

	return &result, nil
}

func (r *PostgresRepository) BulkUpsertDevices(ctx context.Context, inputs []models.DeviceInput) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO devices (device_no, imei, alias, location, is_active)
		VALUES ($1, $2, $3, $4, COALESCE($5, TRUE))
		ON CONFLICT (device_no) DO UPDATE SET
			imei = EXCLUDED.imei,
			alias = EXCLUDED.alias,
			location = EXCLUDED.location,
			is_active = EXCLUDED.is_active,
			updated_at = CURRENT_TIMESTAMP
	`

	batch := &pgx.Batch{}
	for _, input := range inputs {
		batch.Queue(query, input.DeviceNo, input.IMEI, input.Alias, input.Location, input.IsActive)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range inputs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to bulk upsert devices: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) UpdateDevice(ctx context.Context, deviceNo string, input *models.DeviceInput) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE devices SET
			imei = COALESCE($1, imei),
			alias = COALESCE($2, alias),
			location = COALESCE($3, location),
			is_active = COALESCE($4, is_active),
			updated_at = CURRENT_TIMESTAMP
		WHERE device_no = $5
		RETURNING device_no
	`

	var updated string
	err := r.pool.QueryRow(ctx, query,
		input.IMEI, input.Alias, input.Location, input.IsActive, deviceNo,
	).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("failed to update device: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListDevices(ctx context.Context, search, status string) ([]*models.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT
			d.device_no, d.imei, d.alias, d.location, d.is_active, d.created_at,
			(SELECT COUNT(*) FROM water_readings wr WHERE wr.device_no = d.device_no) AS data_count,
			(SELECT MAX(update_time) FROM water_readings wr WHERE wr.device_no = d.device_no) AS last_data
		FROM devices d
	`

	var (
		where []string
		args  []any
	)
	if search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(d.device_no ILIKE $%d OR d.imei ILIKE $%d OR d.alias ILIKE $%d)", n, n, n))
	}
	switch strings.ToLower(status) {
	case "active":
		where = append(where, "d.is_active = TRUE")
	case "inactive":
		where = append(where, "d.is_active = FALSE")
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY d.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.DeviceNo, &d.IMEI, &d.Alias, &d.Location, &d.IsActive,
			&d.CreatedAt, &d.DataCount, &d.LastData); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

func (r *PostgresRepository) DeviceStats(ctx context.Context, deviceNo string) (*models.DeviceStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM devices WHERE device_no = $1)`, deviceNo,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check device: %w", err)
	}
	if !exists {
		return nil, ErrDeviceNotFound
	}

	stats := &models.DeviceStats{DeviceNo: deviceNo}

	query := `
		SELECT
			COUNT(*),
			MIN(update_time),
			MAX(update_time),
			MIN(instantaneous_flow),
			MAX(instantaneous_flow),
			AVG(instantaneous_flow)
		FROM water_readings
		WHERE device_no = $1
	`
	err = r.pool.QueryRow(ctx, query, deviceNo).Scan(
		&stats.DataCount, &stats.FirstDataTime, &stats.LastDataTime,
		&stats.MinFlow, &stats.MaxFlow, &stats.AvgFlow,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate device stats: %w", err)
	}
	return stats, nil
}

func (r *PostgresRepository) InsertReading(ctx context.Context, reading *models.Reading) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO water_readings (
			device_no, imei, battery_voltage, freeze_date_flow,
			instantaneous_flow, pressure, reverse_flow, signal_value,
			start_frequency, temperature, total_flow, valve_status, update_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		reading.DeviceNo, reading.IMEI, reading.BatteryVoltage, reading.FreezeDateFlow,
		reading.InstantaneousFlow, reading.Pressure, reading.ReverseFlow, reading.SignalValue,
		reading.StartFrequency, reading.Temperature, reading.TotalFlow, reading.ValveStatus,
		reading.UpdateTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LatestReadings(ctx context.Context, limit int) ([]*models.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT
			id, device_no, imei, battery_voltage, freeze_date_flow,
			instantaneous_flow, pressure, reverse_flow, signal_value,
			start_frequency, temperature, total_flow, valve_status,
			update_time, created_at
		FROM water_readings
		ORDER BY update_time DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest readings: %w", err)
	}
	defer rows.Close()

	var readings []*models.Reading
	for rows.Next() {
		var rd models.Reading
		if err := rows.Scan(&rd.ID, &rd.DeviceNo, &rd.IMEI, &rd.BatteryVoltage, &rd.FreezeDateFlow,
			&rd.InstantaneousFlow, &rd.Pressure, &rd.ReverseFlow, &rd.SignalValue,
			&rd.StartFrequency, &rd.Temperature, &rd.TotalFlow, &rd.ValveStatus,
			&rd.UpdateTime, &rd.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, &rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query latest readings: %w", err)
	}
	return readings, nil
}
