package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tripline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func scanTrip(row *sql.Row) (domain.Trip, error) {
	var t domain.Trip
	err := row.Scan(&t.ID, &t.Name, &t.Destination, &t.Timezone, &t.StartDate, &t.EndDate, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

const tripColumns = `id,name,COALESCE(destination,'') AS destination,COALESCE(timezone,'') AS timezone,COALESCE(start_date,'') AS start_date,COALESCE(end_date,'') AS end_date,created_at`

func (r Repo) InsertTrip(ctx context.Context, tx *sql.Tx, t domain.Trip) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO trips(id,name,destination,timezone,start_date,end_date,created_at) VALUES (?,?,?,?,?,?,?)`,
		t.ID, t.Name, nullable(t.Destination), nullable(t.Timezone), nullable(t.StartDate), nullable(t.EndDate), t.CreatedAt)
	return err
}

func (r Repo) GetTrip(ctx context.Context, id string) (domain.Trip, error) {
	return scanTrip(r.DB.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=?`, id))
}

// SingleTrip returns the only trip in the workspace, or an error telling
// the caller to disambiguate.
func (r Repo) SingleTrip(ctx context.Context) (domain.Trip, error) {
	trips, err := r.ListTrips(ctx)
	if err != nil {
		return domain.Trip{}, err
	}
	if len(trips) == 0 {
		return domain.Trip{}, ErrNotFound
	}
	if len(trips) > 1 {
		return domain.Trip{}, fmt.Errorf("multiple trips exist; specify --trip")
	}
	return trips[0], nil
}

func (r Repo) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Trip
	for rows.Next() {
		var t domain.Trip
		if err := rows.Scan(&t.ID, &t.Name, &t.Destination, &t.Timezone, &t.StartDate, &t.EndDate, &t.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) UpdateTrip(ctx context.Context, tx *sql.Tx, id string, name, destination, timezone *string) error {
	var (
		fields []string
		args   []any
	)
	if name != nil {
		fields = append(fields, "name=?")
		args = append(args, *name)
	}
	if destination != nil {
		fields = append(fields, "destination=?")
		args = append(args, nullable(*destination))
	}
	if timezone != nil {
		fields = append(fields, "timezone=?")
		args = append(args, nullable(*timezone))
	}
	if len(fields) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE trips SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTrip(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id=?`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// LatestEvents returns up to n recent events, newest first, with optional
// type/entity filters.
func (r Repo) LatestEvents(ctx context.Context, n int, tripID, evtType, entityKind, entityID string) ([]domain.Event, error) {
	if n <= 0 {
		n = 20
	}
	query := `SELECT id,ts,type,COALESCE(trip_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE 1=1`
	var args []any
	if tripID != "" {
		query += ` AND trip_id=?`
		args = append(args, tripID)
	}
	if evtType != "" {
		query += ` AND type=?`
		args = append(args, evtType)
	}
	if entityKind != "" {
		query += ` AND entity_kind=?`
		args = append(args, entityKind)
	}
	if entityID != "" {
		query += ` AND entity_id=?`
		args = append(args, entityID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, n)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.TripID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
