package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tripline/internal/config"
	"tripline/internal/db"
	"tripline/internal/domain"
	"tripline/internal/engine"
	"tripline/internal/migrate"
)

type testServer struct {
	URL    string
	Engine engine.Engine
	Hub    *Hub
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("trip-1")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	e.Now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	if _, err := e.CreateTrip(context.Background(), engine.TripCreateOptions{ID: "trip-1", Name: "Japan", ActorID: "tester"}); err != nil {
		t.Fatalf("create trip: %v", err)
	}
	hub := NewHub(nil)
	e.OnWindowChange = hub.NotifyWindowChange
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth:     AuthConfig{AllowAnonymous: true},
		Live:     hub,
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		Hub:    hub,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func createActivity(t *testing.T, srv *testServer, body map[string]any) domain.Activity {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/trips/trip-1/activities", body, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create activity status %d: %s", res.StatusCode, string(data))
	}
	var resp ActivityResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("unmarshal activity: %v", err)
	}
	return resp.Activity
}

func TestActivityWindowUpdate(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	a := createActivity(t, srv, map[string]any{
		"type":  "stay",
		"title": "Hotel",
		"start": "2026-06-02T15:00:00Z",
		"end":   "2026-06-05T10:00:00Z",
	})

	res, data := doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v0/activities/"+a.ID+"/window", map[string]any{
		"start":  "2026-06-03T15:00:00Z",
		"end":    "2026-06-06T10:00:00Z",
		"reason": "move",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("window update status %d: %s", res.StatusCode, string(data))
	}
	var resp ActivityResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	moved := resp.Activity
	if moved.StartTime != "2026-06-03T15:00:00Z" {
		t.Fatalf("start = %s", moved.StartTime)
	}
	if moved.EndTime == nil || *moved.EndTime != "2026-06-06T10:00:00Z" {
		t.Fatalf("end = %v", moved.EndTime)
	}
}

func TestWindowUpdateRejectsInverted(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	a := createActivity(t, srv, map[string]any{
		"title": "Concert",
		"start": "2026-06-02T19:00:00Z",
		"end":   "2026-06-02T22:00:00Z",
	})

	res, data := doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v0/activities/"+a.ID+"/window", map[string]any{
		"start":  "2026-06-02T19:00:00Z",
		"end":    "2026-06-02T18:00:00Z",
		"reason": "resize",
	}, nil)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", res.StatusCode, string(data))
	}
	if !bytes.Contains(data, []byte("invalid_window")) {
		t.Fatalf("expected invalid_window code: %s", string(data))
	}
}

func TestTimelineEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	createActivity(t, srv, map[string]any{
		"type":  "flight",
		"title": "NRT arrival",
		"start": "2026-06-02T08:30:00Z",
	})
	createActivity(t, srv, map[string]any{
		"type":  "flight",
		"title": "HND departure",
		"start": "2026-06-09T11:00:00Z",
	})
	createActivity(t, srv, map[string]any{
		"type":  "stay",
		"title": "Hotel",
		"start": "2026-06-02T15:00:00Z",
		"end":   "2026-06-05T10:00:00Z",
	})

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/trips/trip-1/timeline?mode=day&width=1200", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("timeline status %d: %s", res.StatusCode, string(data))
	}
	var tl TimelineResponse
	if err := json.Unmarshal(data, &tl); err != nil {
		t.Fatalf("unmarshal timeline: %v", err)
	}
	if tl.Mode != "day" {
		t.Fatalf("mode = %s", tl.Mode)
	}
	if len(tl.Groups) != 2 || tl.Groups[0].Type != "flight" || tl.Groups[1].Type != "stay" {
		t.Fatalf("unexpected groups: %+v", tl.Groups)
	}
	if !strings.HasPrefix(tl.RangeStart, "2026-05-25") {
		t.Fatalf("range start = %s", tl.RangeStart)
	}
	if len(tl.Columns) == 0 {
		t.Fatalf("no columns")
	}
	// a collapsed group reports every activity on its summary row
	if len(tl.Groups[0].Overlay) != 2 {
		t.Fatalf("flight overlay bars = %d, want 2", len(tl.Groups[0].Overlay))
	}
	// point flights still get the visual floor
	for _, b := range tl.Groups[0].Overlay {
		if b.Width < 60 {
			t.Fatalf("overlay width = %f", b.Width)
		}
	}
}

func TestTimelineUnknownTrip(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/trips/nope/timeline", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", res.StatusCode, string(data))
	}
}

func TestImportICSEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	payload := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//t//EN\r\n" +
		"BEGIN:VEVENT\r\nUID:ev-1\r\nSUMMARY:Museum\r\n" +
		"DTSTART:20260602T090000Z\r\nDTEND:20260602T110000Z\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"

	req, err := http.NewRequest(http.MethodPost,
		srv.URL+"/v0/trips/trip-1/import/ics?from=2026-06-01T00:00:00Z&to=2026-06-10T00:00:00Z",
		strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "text/calendar")
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("import status %d: %s", res.StatusCode, string(data))
	}
	var imported ImportResponse
	if err := json.Unmarshal(data, &imported); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if imported.Created != 1 {
		t.Fatalf("created = %d", imported.Created)
	}

	// re-import is idempotent
	req2, _ := http.NewRequest(http.MethodPost,
		srv.URL+"/v0/trips/trip-1/import/ics?from=2026-06-01T00:00:00Z&to=2026-06-10T00:00:00Z",
		strings.NewReader(payload))
	req2.Header.Set("Content-Type", "text/calendar")
	res2, err := srv.Client().Do(req2)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Body.Close()
	data2, _ := io.ReadAll(res2.Body)
	var again ImportResponse
	if err := json.Unmarshal(data2, &again); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if again.Created != 0 || again.Updated != 1 {
		t.Fatalf("re-import created=%d updated=%d", again.Created, again.Updated)
	}
}

func TestAuthRequiredWithoutAnonymous(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	// a second handler with auth enforced, sharing nothing with srv
	handler, err := New(Config{Engine: srv.Engine, BasePath: "/v0", Auth: AuthConfig{JWTSecret: "test-secret"}})
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	authSrv := &http.Server{Handler: handler}
	go authSrv.Serve(ln)
	defer func() {
		authSrv.Shutdown(context.Background())
		ln.Close()
	}()
	base := "http://" + ln.Addr().String()

	res, _ := doJSON(t, srv.Client(), http.MethodGet, base+"/v0/trips", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}

	// health stays open
	res, _ = doJSON(t, srv.Client(), http.MethodGet, base+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}

	// dev login mints a usable token
	res, data := doJSON(t, srv.Client(), http.MethodPost, base+"/v0/auth/dev/login", map[string]any{"actor_id": "alice"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dev login status %d: %s", res.StatusCode, string(data))
	}
	var login DevLoginResponse
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, base+"/v0/trips", nil, map[string]string{"Authorization": "Bearer " + login.Token})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("authed request status %d: %s", res.StatusCode, string(data))
	}
}

func TestHubBroadcastOnWindowChange(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	a := createActivity(t, srv, map[string]any{
		"title": "Walk",
		"start": "2026-06-02T09:00:00Z",
	})

	got := make(chan LiveMessage, 1)
	prev := srv.Engine.OnWindowChange
	srv.Engine.OnWindowChange = func(act domain.Activity) {
		prev(act)
		got <- LiveMessage{Type: "activity.window", Activity: act}
	}

	if _, err := srv.Engine.MoveActivity(context.Background(), a.ID, time.Date(2026, 6, 2, 11, 0, 0, 0, time.UTC), nil, "tester"); err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-got:
		if msg.Activity.ID != a.ID {
			t.Fatalf("broadcast activity %s", msg.Activity.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no window change notification")
	}
}

func TestHubBroadcastFiltersByTrip(t *testing.T) {
	hub := NewHub(nil)
	watching := hub.add(&websocket.Conn{}, "trip-1")
	other := hub.add(&websocket.Conn{}, "trip-2")

	hub.NotifyWindowChange(domain.Activity{ID: "a1", TripID: "trip-1"})

	select {
	case msg := <-watching:
		if msg.Activity.ID != "a1" {
			t.Fatalf("got activity %s", msg.Activity.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("trip-1 subscriber got nothing")
	}
	select {
	case msg := <-other:
		t.Fatalf("trip-2 subscriber received %s", msg.Activity.ID)
	default:
	}
}
