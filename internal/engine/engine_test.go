package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripline/internal/config"
	"tripline/internal/db"
	"tripline/internal/domain"
	"tripline/internal/engine"
	"tripline/internal/migrate"
	"tripline/internal/repo"
	"tripline/internal/timeline"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("trip-1")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	if _, err := eng.CreateTrip(ctx, engine.TripCreateOptions{ID: "trip-1", Name: "Japan", Timezone: "Asia/Tokyo", ActorID: "tester"}); err != nil {
		t.Fatalf("create trip: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func mustCreate(t *testing.T, env testEnv, opts engine.ActivityCreateOptions) domain.Activity {
	t.Helper()
	if opts.TripID == "" {
		opts.TripID = "trip-1"
	}
	if opts.ActorID == "" {
		opts.ActorID = "tester"
	}
	a, err := env.Engine.CreateActivity(env.Ctx, opts)
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	return a
}

func TestCreateActivityValidation(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{TripID: "trip-1", Title: "x", Type: "meal", Start: "2026-06-02T09:00:00Z"}); err == nil {
		t.Fatalf("expected unknown type error")
	}
	if _, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{TripID: "trip-1", Title: "x", Start: "tomorrow"}); err == nil {
		t.Fatalf("expected start parse error")
	}
	if _, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{
		TripID: "trip-1", Title: "x", Start: "2026-06-02T09:00:00Z", End: "2026-06-02T09:00:00Z",
	}); err == nil {
		t.Fatalf("expected inverted window error")
	}
	if _, err := env.Engine.CreateActivity(env.Ctx, engine.ActivityCreateOptions{TripID: "no-such", Title: "x", Start: "2026-06-02T09:00:00Z"}); err == nil {
		t.Fatalf("expected missing trip error")
	}

	a := mustCreate(t, env, engine.ActivityCreateOptions{Title: "Ghibli museum", Start: "2026-06-02T09:00:00Z"})
	if a.Type != "event" {
		t.Fatalf("default type = %s, want event", a.Type)
	}
	if a.EndTime != nil {
		t.Fatalf("point activity should persist with no end")
	}
}

func TestMoveActivityPreservesSpan(t *testing.T) {
	env := newTestEnv(t)
	a := mustCreate(t, env, engine.ActivityCreateOptions{
		Type: "stay", Title: "Hotel", Start: "2026-06-02T15:00:00Z", End: "2026-06-05T10:00:00Z",
	})

	start := time.Date(2026, 6, 3, 15, 0, 0, 0, time.UTC)
	end := start.Add(2*24*time.Hour + 19*time.Hour)
	moved, err := env.Engine.MoveActivity(env.Ctx, a.ID, start, &end, "tester")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.StartTime != "2026-06-03T15:00:00Z" {
		t.Fatalf("start = %s", moved.StartTime)
	}
	if moved.EndTime == nil || *moved.EndTime != "2026-06-06T10:00:00Z" {
		t.Fatalf("end = %v", moved.EndTime)
	}

	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 1, "trip-1", "activity.moved", "", "")
	if err != nil || len(evts) != 1 {
		t.Fatalf("expected one activity.moved event, got %d err %v", len(evts), err)
	}
}

func TestResizeActivityRejectsInvertedWindow(t *testing.T) {
	env := newTestEnv(t)
	a := mustCreate(t, env, engine.ActivityCreateOptions{
		Type: "event", Title: "Concert", Start: "2026-06-02T19:00:00Z", End: "2026-06-02T22:00:00Z",
	})

	start := time.Date(2026, 6, 2, 19, 0, 0, 0, time.UTC)
	bad := start.Add(-time.Hour)
	if _, err := env.Engine.ResizeActivity(env.Ctx, a.ID, start, &bad, "tester"); err == nil {
		t.Fatalf("expected inverted window rejection")
	}

	got, err := env.Engine.Repo.GetActivity(env.Ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.EndTime == nil || *got.EndTime != "2026-06-02T22:00:00Z" {
		t.Fatalf("window changed after rejected resize: %v", got.EndTime)
	}
}

func TestWindowChangeHook(t *testing.T) {
	env := newTestEnv(t)
	a := mustCreate(t, env, engine.ActivityCreateOptions{Title: "Walk", Start: "2026-06-02T09:00:00Z"})

	var notified []string
	env.Engine.OnWindowChange = func(a domain.Activity) { notified = append(notified, a.ID) }

	if _, err := env.Engine.MoveActivity(env.Ctx, a.ID, time.Date(2026, 6, 2, 11, 0, 0, 0, time.UTC), nil, "tester"); err != nil {
		t.Fatal(err)
	}
	if len(notified) != 1 || notified[0] != a.ID {
		t.Fatalf("hook not fired: %v", notified)
	}
}

func TestUpdateActivityFields(t *testing.T) {
	env := newTestEnv(t)
	a := mustCreate(t, env, engine.ActivityCreateOptions{Title: "Lunch", City: "Kyoto", Start: "2026-06-02T12:00:00Z"})

	title := "Lunch at Nishiki"
	typ := "task"
	got, err := env.Engine.UpdateActivity(env.Ctx, engine.ActivityUpdateOptions{ID: a.ID, Title: &title, Type: &typ, ActorID: "tester"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != title || got.Type != "task" || got.City != "Kyoto" {
		t.Fatalf("unexpected row: %+v", got)
	}

	bad := "meal"
	if _, err := env.Engine.UpdateActivity(env.Ctx, engine.ActivityUpdateOptions{ID: a.ID, Type: &bad, ActorID: "tester"}); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestTimelineLayoutFromStore(t *testing.T) {
	env := newTestEnv(t)
	mustCreate(t, env, engine.ActivityCreateOptions{Type: "flight", Title: "NRT arrival", Start: "2026-06-02T08:30:00Z"})
	mustCreate(t, env, engine.ActivityCreateOptions{Type: "stay", Title: "Hotel", Start: "2026-06-02T15:00:00Z", End: "2026-06-05T10:00:00Z"})

	layout, err := env.Engine.TimelineLayout(env.Ctx, engine.TimelineOptions{TripID: "trip-1", Mode: timeline.ModeDay, ContainerWidth: 1200})
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if len(layout.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(layout.Groups))
	}
	if layout.Groups[0].Type != timeline.TypeFlight || layout.Groups[1].Type != timeline.TypeStay {
		t.Fatalf("group order: %v %v", layout.Groups[0].Type, layout.Groups[1].Type)
	}
	// activities on June 2nd pull the range back to May 25th
	if layout.Range.Start.Day() != 25 || layout.Range.Start.Month() != time.May {
		t.Fatalf("range start = %v", layout.Range.Start)
	}
}

func TestTimelineLayoutToleratesCorruptTimestamps(t *testing.T) {
	env := newTestEnv(t)
	a := mustCreate(t, env, engine.ActivityCreateOptions{Title: "Ok", Start: "2026-06-02T09:00:00Z"})

	// corrupt the stored start directly, bypassing validation
	if _, err := env.Engine.DB.Exec(`UPDATE activities SET start_time='garbage' WHERE id=?`, a.ID); err != nil {
		t.Fatal(err)
	}

	layout, err := env.Engine.TimelineLayout(env.Ctx, engine.TimelineOptions{TripID: "trip-1", Mode: timeline.ModeDay})
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	var bars int
	for _, g := range layout.Groups {
		bars += 1 + len(g.Rows)
	}
	if bars == 0 {
		t.Fatalf("corrupt timestamp dropped the activity")
	}
}

func TestDeleteActivity(t *testing.T) {
	env := newTestEnv(t)
	a := mustCreate(t, env, engine.ActivityCreateOptions{Title: "Temp", Start: "2026-06-02T09:00:00Z"})

	if err := env.Engine.DeleteActivity(env.Ctx, a.ID, "tester"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.Repo.GetActivity(env.Ctx, a.ID); err == nil {
		t.Fatalf("activity still present after delete")
	}
}

func TestUpdateTripFields(t *testing.T) {
	env := newTestEnv(t)

	name := "Japan 2026"
	dest := "Kyoto"
	tr, err := env.Engine.UpdateTrip(env.Ctx, engine.TripUpdateOptions{ID: "trip-1", Name: &name, Destination: &dest, ActorID: "tester"})
	if err != nil {
		t.Fatalf("update trip: %v", err)
	}
	if tr.Name != "Japan 2026" || tr.Destination != "Kyoto" {
		t.Fatalf("trip = %+v", tr)
	}

	bad := "Not/AZone"
	if _, err := env.Engine.UpdateTrip(env.Ctx, engine.TripUpdateOptions{ID: "trip-1", Timezone: &bad}); err == nil {
		t.Fatalf("expected invalid timezone error")
	}

	empty := ""
	if _, err := env.Engine.UpdateTrip(env.Ctx, engine.TripUpdateOptions{ID: "trip-1", Name: &empty}); err == nil {
		t.Fatalf("expected empty name error")
	}
}

func TestDeleteTripRemovesActivities(t *testing.T) {
	env := newTestEnv(t)
	a := mustCreate(t, env, engine.ActivityCreateOptions{Title: "Temp", Start: "2026-06-02T09:00:00Z"})

	if err := env.Engine.DeleteTrip(env.Ctx, "trip-1", "tester"); err != nil {
		t.Fatalf("delete trip: %v", err)
	}
	if _, err := env.Engine.Repo.GetTrip(env.Ctx, "trip-1"); err == nil {
		t.Fatalf("trip still present after delete")
	}
	if _, err := env.Engine.Repo.GetActivity(env.Ctx, a.ID); err == nil {
		t.Fatalf("activity survived trip delete")
	}
}

func TestImportKeyMatchingIsExact(t *testing.T) {
	env := newTestEnv(t)
	base := mustCreate(t, env, engine.ActivityCreateOptions{
		Title: "Standup", Notes: repo.ImportMarker("ev-1"), Start: "2026-06-02T09:00:00Z",
	})
	inst := mustCreate(t, env, engine.ActivityCreateOptions{
		Title: "Standup (recurrence)", Notes: repo.ImportMarker("ev-1/1780000000"), Start: "2026-06-03T09:00:00Z",
	})
	mustCreate(t, env, engine.ActivityCreateOptions{
		Title: "Decoy", Notes: repo.ImportMarker("evX1"), Start: "2026-06-04T09:00:00Z",
	})

	got, err := env.Engine.Repo.FindActivityByImportKey(env.Ctx, "trip-1", "ev-1")
	if err != nil {
		t.Fatalf("find ev-1: %v", err)
	}
	if got.ID != base.ID {
		t.Fatalf("ev-1 matched %s, want %s", got.Title, base.Title)
	}

	got, err = env.Engine.Repo.FindActivityByImportKey(env.Ctx, "trip-1", "ev-1/1780000000")
	if err != nil {
		t.Fatalf("find instance key: %v", err)
	}
	if got.ID != inst.ID {
		t.Fatalf("instance key matched %s, want %s", got.Title, inst.Title)
	}

	// an underscore in the key must match literally, never as a wildcard
	if _, err := env.Engine.Repo.FindActivityByImportKey(env.Ctx, "trip-1", "ev_1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("ev_1 should not match evX1, got err=%v", err)
	}
}
