package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tripline/internal/config"
	"tripline/internal/domain"
	"tripline/internal/events"
	"tripline/internal/repo"
	"tripline/internal/timeline"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
	Logger *zap.Logger

	// OnWindowChange is notified after a move or resize commits.
	OnWindowChange func(domain.Activity)
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
		Logger: zap.NewNop(),
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}

// TripCreateOptions are parameters for creating a trip.
type TripCreateOptions struct {
	ID          string
	Name        string
	Destination string
	Timezone    string
	StartDate   string
	EndDate     string
	ActorID     string
}

func (e Engine) CreateTrip(ctx context.Context, opts TripCreateOptions) (domain.Trip, error) {
	if opts.Name == "" {
		return domain.Trip{}, errors.New("name is required")
	}
	if opts.Timezone != "" {
		if _, err := time.LoadLocation(opts.Timezone); err != nil {
			return domain.Trip{}, fmt.Errorf("timezone %q: %w", opts.Timezone, err)
		}
	}
	for _, d := range []string{opts.StartDate, opts.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(time.RFC3339, d); err != nil {
			return domain.Trip{}, fmt.Errorf("date %q: %w", d, err)
		}
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	t := domain.Trip{
		ID:          id,
		Name:        opts.Name,
		Destination: opts.Destination,
		Timezone:    opts.Timezone,
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Trip{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertTrip(ctx, tx, t); err != nil {
		return domain.Trip{}, fmt.Errorf("insert trip: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "trip.created", t.ID, "trip", t.ID, opts.ActorID, events.EventPayload{"name": t.Name}); err != nil {
		return domain.Trip{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Trip{}, err
	}
	return t, nil
}

// TripUpdateOptions carries optional field updates. Nil means leave as is.
type TripUpdateOptions struct {
	ID          string
	Name        *string
	Destination *string
	Timezone    *string
	ActorID     string
}

func (e Engine) UpdateTrip(ctx context.Context, opts TripUpdateOptions) (domain.Trip, error) {
	if opts.Name != nil && *opts.Name == "" {
		return domain.Trip{}, errors.New("name is required")
	}
	if opts.Timezone != nil && *opts.Timezone != "" {
		if _, err := time.LoadLocation(*opts.Timezone); err != nil {
			return domain.Trip{}, fmt.Errorf("timezone %q: %w", *opts.Timezone, err)
		}
	}
	t, err := e.Repo.GetTrip(ctx, opts.ID)
	if err != nil {
		return domain.Trip{}, err
	}
	changed := events.EventPayload{}
	if opts.Name != nil && *opts.Name != t.Name {
		t.Name = *opts.Name
		changed["name"] = t.Name
	}
	if opts.Destination != nil && *opts.Destination != t.Destination {
		t.Destination = *opts.Destination
		changed["destination"] = t.Destination
	}
	if opts.Timezone != nil && *opts.Timezone != t.Timezone {
		t.Timezone = *opts.Timezone
		changed["timezone"] = t.Timezone
	}
	if len(changed) == 0 {
		return t, nil
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Trip{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateTrip(ctx, tx, t.ID, opts.Name, opts.Destination, opts.Timezone); err != nil {
		return domain.Trip{}, err
	}
	if err := e.Events.Append(ctx, tx, "trip.updated", t.ID, "trip", t.ID, opts.ActorID, changed); err != nil {
		return domain.Trip{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Trip{}, err
	}
	return t, nil
}

// DeleteTrip removes a trip and all of its activities.
func (e Engine) DeleteTrip(ctx context.Context, id, actorID string) error {
	t, err := e.Repo.GetTrip(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE trip_id=?`, id); err != nil {
		return err
	}
	if err := e.Repo.DeleteTrip(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "trip.deleted", t.ID, "trip", t.ID, actorID, events.EventPayload{"name": t.Name}); err != nil {
		return err
	}
	return tx.Commit()
}

// ActivityCreateOptions are parameters for creating an activity.
type ActivityCreateOptions struct {
	ID      string
	TripID  string
	Type    string
	Title   string
	City    string
	Notes   string
	Start   string
	End     string
	ActorID string
}

func validType(t string) bool {
	for _, k := range timeline.KnownTypes {
		if string(k) == t {
			return true
		}
	}
	return false
}

func (e Engine) CreateActivity(ctx context.Context, opts ActivityCreateOptions) (domain.Activity, error) {
	if opts.Title == "" {
		return domain.Activity{}, errors.New("title is required")
	}
	if opts.TripID == "" {
		return domain.Activity{}, errors.New("trip is required")
	}
	if opts.Type == "" {
		opts.Type = string(timeline.TypeEvent)
	}
	if !validType(opts.Type) {
		return domain.Activity{}, fmt.Errorf("unknown activity type %q", opts.Type)
	}
	if _, err := e.Repo.GetTrip(ctx, opts.TripID); err != nil {
		return domain.Activity{}, err
	}
	start, err := time.Parse(time.RFC3339, opts.Start)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("start %q: %w", opts.Start, err)
	}
	var end *string
	if opts.End != "" {
		et, err := time.Parse(time.RFC3339, opts.End)
		if err != nil {
			return domain.Activity{}, fmt.Errorf("end %q: %w", opts.End, err)
		}
		if !et.After(start) {
			return domain.Activity{}, errors.New("end must be after start")
		}
		v := et.UTC().Format(time.RFC3339)
		end = &v
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := e.now().UTC().Format(time.RFC3339)
	a := domain.Activity{
		ID:        id,
		TripID:    opts.TripID,
		Type:      opts.Type,
		Title:     opts.Title,
		City:      opts.City,
		Notes:     opts.Notes,
		StartTime: start.UTC().Format(time.RFC3339),
		EndTime:   end,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Activity{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertActivity(ctx, tx, a); err != nil {
		return domain.Activity{}, err
	}
	if err := e.Events.Append(ctx, tx, "activity.created", a.TripID, "activity", a.ID, opts.ActorID, events.EventPayload{
		"type":  a.Type,
		"title": a.Title,
		"start": a.StartTime,
	}); err != nil {
		return domain.Activity{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Activity{}, err
	}
	return a, nil
}

// ActivityUpdateOptions carries optional field updates. Nil means leave as is.
type ActivityUpdateOptions struct {
	ID      string
	Title   *string
	City    *string
	Notes   *string
	Type    *string
	ActorID string
}

func (e Engine) UpdateActivity(ctx context.Context, opts ActivityUpdateOptions) (domain.Activity, error) {
	a, err := e.Repo.GetActivity(ctx, opts.ID)
	if err != nil {
		return domain.Activity{}, err
	}
	changed := events.EventPayload{}
	if opts.Title != nil && *opts.Title != a.Title {
		a.Title = *opts.Title
		changed["title"] = a.Title
	}
	if opts.City != nil && *opts.City != a.City {
		a.City = *opts.City
		changed["city"] = a.City
	}
	if opts.Notes != nil && *opts.Notes != a.Notes {
		a.Notes = *opts.Notes
		changed["notes"] = a.Notes
	}
	if opts.Type != nil && *opts.Type != a.Type {
		if !validType(*opts.Type) {
			return domain.Activity{}, fmt.Errorf("unknown activity type %q", *opts.Type)
		}
		a.Type = *opts.Type
		changed["type"] = a.Type
	}
	if len(changed) == 0 {
		return a, nil
	}
	a.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Activity{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateActivity(ctx, tx, a); err != nil {
		return domain.Activity{}, err
	}
	if err := e.Events.Append(ctx, tx, "activity.updated", a.TripID, "activity", a.ID, opts.ActorID, changed); err != nil {
		return domain.Activity{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Activity{}, err
	}
	return a, nil
}

func (e Engine) DeleteActivity(ctx context.Context, id, actorID string) error {
	a, err := e.Repo.GetActivity(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.DeleteActivity(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "activity.deleted", a.TripID, "activity", a.ID, actorID, events.EventPayload{"title": a.Title}); err != nil {
		return err
	}
	return tx.Commit()
}

// MoveActivity shifts an activity to a new start, preserving its span.
func (e Engine) MoveActivity(ctx context.Context, id string, start time.Time, end *time.Time, actorID string) (domain.Activity, error) {
	return e.applyWindow(ctx, id, start, end, actorID, "activity.moved")
}

// ResizeActivity sets a new window for an activity from an edge drag.
func (e Engine) ResizeActivity(ctx context.Context, id string, start time.Time, end *time.Time, actorID string) (domain.Activity, error) {
	return e.applyWindow(ctx, id, start, end, actorID, "activity.resized")
}

func (e Engine) applyWindow(ctx context.Context, id string, start time.Time, end *time.Time, actorID, evtType string) (domain.Activity, error) {
	a, err := e.Repo.GetActivity(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	if end != nil && !end.After(start) {
		return domain.Activity{}, errors.New("end must be after start")
	}
	a.StartTime = start.UTC().Format(time.RFC3339)
	a.EndTime = nil
	if end != nil {
		v := end.UTC().Format(time.RFC3339)
		a.EndTime = &v
	}
	a.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Activity{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateActivityWindow(ctx, tx, a.ID, a.StartTime, a.EndTime, a.UpdatedAt); err != nil {
		return domain.Activity{}, err
	}
	payload := events.EventPayload{"start": a.StartTime}
	if a.EndTime != nil {
		payload["end"] = *a.EndTime
	}
	if err := e.Events.Append(ctx, tx, evtType, a.TripID, "activity", a.ID, actorID, payload); err != nil {
		return domain.Activity{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Activity{}, err
	}
	if e.OnWindowChange != nil {
		e.OnWindowChange(a)
	}
	return a, nil
}

// TimelineOptions selects a rendered timeline for a trip.
type TimelineOptions struct {
	TripID         string
	Mode           timeline.ViewMode
	ContainerWidth float64
	Zoom           timeline.Zoom
	Expanded       map[timeline.Type]bool
}

// TimelineLayout loads a trip's activities and computes bar geometry.
func (e Engine) TimelineLayout(ctx context.Context, opts TimelineOptions) (timeline.Layout, error) {
	if _, err := e.Repo.GetTrip(ctx, opts.TripID); err != nil {
		return timeline.Layout{}, err
	}
	rows, err := e.Repo.ListActivities(ctx, opts.TripID)
	if err != nil {
		return timeline.Layout{}, err
	}
	mode := opts.Mode
	if mode == "" {
		mode = timeline.ModeDay
		if e.Config != nil {
			mode = e.Config.DefaultMode()
		}
	}
	expanded := opts.Expanded
	if expanded == nil && e.Config != nil {
		expanded = e.Config.ExpandedTypes()
	}
	return timeline.BuildLayout(timeline.LayoutInput{
		Activities:     e.TimelineActivities(rows),
		Mode:           mode,
		ContainerWidth: opts.ContainerWidth,
		Zoom:           opts.Zoom,
		Expanded:       expanded,
		Now:            e.now(),
	})
}

// TimelineActivities converts stored rows to timeline activities.
// Malformed timestamps degrade to now rather than dropping the row.
func (e Engine) TimelineActivities(rows []domain.Activity) []timeline.Activity {
	out := make([]timeline.Activity, 0, len(rows))
	for _, row := range rows {
		a := timeline.Activity{
			ID:    row.ID,
			Type:  timeline.Type(row.Type),
			Title: row.Title,
			City:  row.City,
			Start: timeline.ParseTime(row.StartTime, e.now(), e.logger()),
		}
		if row.EndTime != nil {
			et := timeline.ParseTime(*row.EndTime, e.now(), e.logger())
			a.End = &et
		}
		out = append(out, a)
	}
	return out
}
