package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// Repository is the persistence boundary of the device registry.
// SQLiteRepository is the production implementation; tests use fakes.
type Repository interface {
	// List returns devices matching filter, ordered by id.
	List(ctx context.Context, filter Filter) ([]GlobalDevice, error)

	// Upsert inserts a device or replaces the one with the same name and
	// type, creating its room and type rows as needed. It returns the id.
	Upsert(ctx context.Context, device GlobalDevice) (int64, error)
}

// SQLiteRepository implements Repository on the global_devices schema.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const listDevicesQuery = `
	SELECT g.id, g.name, t.name, r.name, g.pattern, g.device_attributes
	FROM global_devices g
	JOIN device_types t ON t.id = g.device_type_id
	LEFT JOIN rooms r ON r.id = g.room_id`

// List retrieves devices matching filter.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]GlobalDevice, error) {
	var (
		where []string
		args  []any
	)
	if filter.DeviceType != "" {
		where = append(where, "t.name = ?")
		args = append(args, filter.DeviceType)
	}
	if len(filter.Rooms) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Rooms)), ",")
		where = append(where, "r.name IN ("+placeholders+")")
		for _, room := range filter.Rooms {
			args = append(args, room)
		}
	}

	query := listDevicesQuery
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY g.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	devices := []GlobalDevice{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// Upsert creates or replaces a device keyed by (name, device type).
func (r *SQLiteRepository) Upsert(ctx context.Context, d GlobalDevice) (int64, error) {
	if strings.TrimSpace(d.Name) == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalidDevice)
	}
	if strings.TrimSpace(d.DeviceType) == "" {
		return 0, fmt.Errorf("%w: device %q has no type", ErrInvalidDevice, d.Name)
	}

	pattern := d.Pattern
	if pattern == nil {
		pattern = []string{}
	}
	patternJSON, err := json.Marshal(pattern)
	if err != nil {
		return 0, fmt.Errorf("marshalling pattern: %w", err)
	}
	attrs := d.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return 0, fmt.Errorf("%w: attributes of %q: %w", ErrInvalidDevice, d.Name, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	typeID, err := lookupOrCreate(ctx, tx, "device_types", d.DeviceType)
	if err != nil {
		return 0, err
	}

	var roomID sql.NullInt64
	if d.Room != nil {
		id, err := lookupOrCreate(ctx, tx, "rooms", *d.Room)
		if err != nil {
			return 0, err
		}
		roomID = sql.NullInt64{Int64: id, Valid: true}
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO global_devices (device_type_id, name, pattern, device_attributes, room_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name, device_type_id) DO UPDATE SET
			pattern = excluded.pattern,
			device_attributes = excluded.device_attributes,
			room_id = excluded.room_id
		RETURNING id`,
		typeID, d.Name, string(patternJSON), string(attrsJSON), roomID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting device %q: %w", d.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing device %q: %w", d.Name, err)
	}
	return id, nil
}

// lookupOrCreate returns the id of the named row in a (id, name) table,
// inserting it first when missing. table is always a package constant.
func lookupOrCreate(ctx context.Context, tx *sql.Tx, table, name string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+table+" (name) VALUES (?) ON CONFLICT (name) DO NOTHING", name,
	); err != nil {
		return 0, fmt.Errorf("creating %s %q: %w", table, name, err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM "+table+" WHERE name = ?", name,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("looking up %s %q: %w", table, name, err)
	}
	return id, nil
}

func scanDevice(rows *sql.Rows) (GlobalDevice, error) {
	var (
		d           GlobalDevice
		room        sql.NullString
		patternJSON string
		attrsJSON   string
	)
	if err := rows.Scan(&d.ID, &d.Name, &d.DeviceType, &room, &patternJSON, &attrsJSON); err != nil {
		return GlobalDevice{}, fmt.Errorf("scanning device: %w", err)
	}

	if room.Valid {
		d.Room = &room.String
	}
	if err := json.Unmarshal([]byte(patternJSON), &d.Pattern); err != nil {
		return GlobalDevice{}, fmt.Errorf("decoding pattern of device %d: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(attrsJSON), &d.Attributes); err != nil {
		return GlobalDevice{}, fmt.Errorf("decoding attributes of device %d: %w", d.ID, err)
	}

	return d, nil
}
