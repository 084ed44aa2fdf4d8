// Package persistence implements Postgres-backed outbound ports using
// sqlx, following the teacher's entity-struct-plus-toDomain conversion
// pattern (worker_sync_state_adapter.go, worker_folder_adapter.go).
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"easgateway/core/domain"

	"github.com/jmoiron/sqlx"
)

// DeviceAdapter implements out.DeviceRepository using PostgreSQL.
type DeviceAdapter struct {
	db *sqlx.DB
}

// NewDeviceAdapter creates a new DeviceAdapter.
func NewDeviceAdapter(db *sqlx.DB) *DeviceAdapter {
	return &DeviceAdapter{db: db}
}

type deviceEntity struct {
	PrincipalID int64          `db:"principal_id"`
	DeviceID    string         `db:"device_id"`
	DeviceType  sql.NullString `db:"device_type"`
	PolicyKey   sql.NullString `db:"policy_key"`
	State       string         `db:"state"`
	LastSeen    time.Time      `db:"last_seen"`
}

func (e *deviceEntity) toDomain() *domain.Device {
	d := &domain.Device{
		PrincipalID: e.PrincipalID,
		DeviceID:    e.DeviceID,
		State:       domain.ProvisionState(e.State),
		LastSeen:    e.LastSeen,
	}
	if e.DeviceType.Valid {
		d.DeviceType = e.DeviceType.String
	}
	if e.PolicyKey.Valid {
		d.PolicyKey = e.PolicyKey.String
	}
	return d
}

// Get loads the Device for a (principal, device id) pair, or nil if this
// is the device's first contact.
func (a *DeviceAdapter) Get(ctx context.Context, principalID int64, deviceID string) (*domain.Device, error) {
	var entity deviceEntity
	query := `SELECT principal_id, device_id, device_type, policy_key, state, last_seen
	          FROM eas_devices WHERE principal_id = $1 AND device_id = $2`
	if err := a.db.GetContext(ctx, &entity, query, principalID, deviceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("persistence: get device %s: %w", deviceID, err)
	}
	return entity.toDomain(), nil
}

// Upsert inserts or updates a Device row, keyed by (principal_id, device_id).
func (a *DeviceAdapter) Upsert(ctx context.Context, device *domain.Device) error {
	query := `
		INSERT INTO eas_devices (principal_id, device_id, device_type, policy_key, state, last_seen)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (principal_id, device_id) DO UPDATE SET
			device_type = EXCLUDED.device_type,
			policy_key  = EXCLUDED.policy_key,
			state       = EXCLUDED.state,
			last_seen   = NOW()
	`
	_, err := a.db.ExecContext(ctx, query,
		device.PrincipalID, device.DeviceID, device.DeviceType, device.PolicyKey, string(device.State))
	if err != nil {
		return fmt.Errorf("persistence: upsert device %s: %w", device.DeviceID, err)
	}
	return nil
}

// Touch bumps last_seen without touching provisioning state, for every
// command a device sends once it is registered, provisioned or not.
func (a *DeviceAdapter) Touch(ctx context.Context, principalID int64, deviceID string, seenAt time.Time) error {
	query := `UPDATE eas_devices SET last_seen = $1 WHERE principal_id = $2 AND device_id = $3`
	_, err := a.db.ExecContext(ctx, query, seenAt, principalID, deviceID)
	if err != nil {
		return fmt.Errorf("persistence: touch device %s: %w", deviceID, err)
	}
	return nil
}
