package repo

import (
	"context"
	"database/sql"
	"strings"

	"tripline/internal/domain"
)

const activityColumns = `id,trip_id,type,title,COALESCE(city,'') AS city,COALESCE(notes,'') AS notes,start_time,end_time,created_at,updated_at`

func scanActivity(scan func(dest ...any) error) (domain.Activity, error) {
	var a domain.Activity
	var end sql.NullString
	err := scan(&a.ID, &a.TripID, &a.Type, &a.Title, &a.City, &a.Notes, &a.StartTime, &end, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if end.Valid {
		a.EndTime = &end.String
	}
	return a, err
}

func (r Repo) InsertActivity(ctx context.Context, tx *sql.Tx, a domain.Activity) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO activities(id,trip_id,type,title,city,notes,start_time,end_time,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.TripID, a.Type, a.Title, nullable(a.City), nullable(a.Notes), a.StartTime, nullableDeref(a.EndTime), a.CreatedAt, a.UpdatedAt)
	return err
}

func (r Repo) GetActivity(ctx context.Context, id string) (domain.Activity, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id=?`, id)
	return scanActivity(row.Scan)
}

func (r Repo) ListActivities(ctx context.Context, tripID string) ([]domain.Activity, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE trip_id=? ORDER BY start_time, id`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) UpdateActivity(ctx context.Context, tx *sql.Tx, a domain.Activity) error {
	res, err := tx.ExecContext(ctx, `UPDATE activities SET type=?,title=?,city=?,notes=?,start_time=?,end_time=?,updated_at=? WHERE id=?`,
		a.Type, a.Title, nullable(a.City), nullable(a.Notes), a.StartTime, nullableDeref(a.EndTime), a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateActivityWindow persists a new time window only. The general
// update path above is for form edits; this one is the sink for drag and
// resize gestures.
func (r Repo) UpdateActivityWindow(ctx context.Context, tx *sql.Tx, id, start string, end *string, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE activities SET start_time=?,end_time=?,updated_at=? WHERE id=?`,
		start, nullableDeref(end), updatedAt, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteActivity(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE id=?`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActivitiesByType supports the trip status summary.
func (r Repo) CountActivitiesByType(ctx context.Context, tripID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT type, COUNT(*) FROM activities WHERE trip_id=? GROUP BY type`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

// ImportMarker is the notes marker recording an import key. The closing
// bracket keeps a key from matching any longer key it prefixes.
func ImportMarker(key string) string { return "[ics:" + key + "]" }

// FindActivityByImportKey locates an activity previously imported from an
// external calendar through its bracketed notes marker. LIKE wildcards in
// the key are escaped so they match literally.
func (r Repo) FindActivityByImportKey(ctx context.Context, tripID, key string) (domain.Activity, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE trip_id=? AND notes LIKE ? ESCAPE '\'`,
		tripID, "%"+likeEscape(ImportMarker(key))+"%")
	return scanActivity(row.Scan)
}

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullableDeref(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}
