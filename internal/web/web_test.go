package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"rollsheet/internal/dice"
	"rollsheet/internal/notify"
	"rollsheet/internal/store"
)

type cycleSource struct {
	mu    sync.Mutex
	faces []int
	next  int
}

func (s *cycleSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	face := s.faces[s.next%len(s.faces)]
	s.next++
	return face - 1
}

type memStore struct {
	mu        sync.Mutex
	character *store.Character
	rolls     []store.RollRecord
	logs      []store.LogEntry
	matches   []store.LogMatch
	addErr    error
	searchErr error
	lastLimit int
}

func (m *memStore) FirstCharacter(context.Context) (*store.Character, error) {
	return m.character, nil
}

func (m *memStore) AddRoll(_ context.Context, in store.RollInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return "", m.addErr
	}
	id := "roll_" + string(rune('a'+len(m.rolls)))
	rec := store.RollRecord{
		ID:         id,
		SessionID:  in.SessionID,
		Expression: in.Expression,
		Faces:      in.Faces,
		Total:      in.Total,
		Created:    "2045-03-14T21:00:00Z",
	}
	m.rolls = append([]store.RollRecord{rec}, m.rolls...)
	return id, nil
}

func (m *memStore) ListRolls(_ context.Context, _ string, limit int) ([]store.RollRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	return append([]store.RollRecord{}, m.rolls...), nil
}

func (m *memStore) ListLogs(context.Context, string) ([]store.LogEntry, error) {
	return m.logs, nil
}

func (m *memStore) SearchLogs(context.Context, string, int) ([]store.LogMatch, error) {
	return m.matches, m.searchErr
}

func (m *memStore) rollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rolls)
}

var fixedNow = time.Date(2045, 3, 14, 23, 5, 0, 0, time.UTC)

type testServer struct {
	*Server
	db    *memStore
	toast *notify.Toast
	hub   *Hub
}

func newTestServer(t *testing.T, db *memStore, opts Options) *testServer {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	hub := NewHub(logger)
	toast := notify.NewToast(time.Hour)
	roller := dice.NewRoller(db, toast, dice.RollerOptions{
		Source:     &cycleSource{faces: []int{3, 5}},
		Logger:     logger,
		OnRecorded: hub.RollRecorded,
	})

	opts.Logger = logger
	opts.Now = func() time.Time { return fixedNow }
	srv, err := NewServer(db, roller, toast, hub, opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, db: db, toast: toast, hub: hub}
}

func eden() *store.Character {
	return &store.Character{
		ID:        "char_eden",
		Name:      "Eden Vasquez",
		System:    "cyberpunk-red",
		RoleClass: "Netrunner",
		Level:     4,
		Stats:     map[string]any{"REF": float64(7), "INT": float64(8)},
		Derived:   map[string]any{"hp_max": float64(40), "hp_current": float64(33)},
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSheetPage(t *testing.T) {
	srv := newTestServer(t, &memStore{character: eden()}, Options{})

	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Eden Vasquez", "Netrunner", "33 / 40", "width: 83%", `class="tab active">Sheet`, "DATA: <span id=\"clock\">23:05:00</span>"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
	if strings.Index(body, ">INT<") > strings.Index(body, ">REF<") {
		t.Fatalf("expected stats in key order")
	}
}

func TestSheetPageWithoutCharacter(t *testing.T) {
	srv := newTestServer(t, &memStore{}, Options{})

	rec := get(t, srv, "/")
	if !strings.Contains(rec.Body.String(), "No character found.") {
		t.Fatalf("expected empty sheet message")
	}
}

func TestPlaceholderPages(t *testing.T) {
	srv := newTestServer(t, &memStore{}, Options{})

	tests := map[string]string{
		"/messages": "Messages placeholder",
		"/map":      "Map placeholder",
		"/dm":       "DM tools placeholder",
	}
	for path, want := range tests {
		rec := get(t, srv, path)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("%s: expected %q, got %d", path, want, rec.Code)
		}
	}
}

func TestDiceSubmit(t *testing.T) {
	t.Run("success clears input", func(t *testing.T) {
		srv := newTestServer(t, &memStore{}, Options{})

		rec := postForm(t, srv, "/dice", url.Values{"expr": {"2d6"}})
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dice" {
			t.Fatalf("expected redirect to /dice, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
		if srv.db.rollCount() != 1 {
			t.Fatalf("expected one stored roll")
		}

		page := get(t, srv, "/dice").Body.String()
		if !strings.Contains(page, "Rolled 2d6 → 8") || !strings.Contains(page, `class="toast ok"`) {
			t.Fatalf("expected success toast, got %s", page)
		}
		if !strings.Contains(page, "[3,5]") {
			t.Fatalf("expected faces in history")
		}
	})

	t.Run("invalid keeps input", func(t *testing.T) {
		srv := newTestServer(t, &memStore{}, Options{})

		rec := postForm(t, srv, "/dice", url.Values{"expr": {"banana"}})
		if got := rec.Header().Get("Location"); got != "/dice?expr=banana" {
			t.Fatalf("expected input kept in redirect, got %q", got)
		}
		if srv.db.rollCount() != 0 {
			t.Fatalf("expected no stored roll")
		}

		page := get(t, srv, "/dice?expr=banana").Body.String()
		if !strings.Contains(page, `value="banana"`) || !strings.Contains(page, "Enter NdM like") {
			t.Fatalf("expected validation toast and retained input")
		}
		if !strings.Contains(page, `class="toast err"`) {
			t.Fatalf("expected error toast")
		}
	})

	t.Run("store failure keeps input", func(t *testing.T) {
		srv := newTestServer(t, &memStore{addErr: errors.New("disk I/O error")}, Options{})

		rec := postForm(t, srv, "/dice", url.Values{"expr": {"1d10"}})
		if got := rec.Header().Get("Location"); got != "/dice?expr=1d10" {
			t.Fatalf("expected input kept in redirect, got %q", got)
		}
		if !strings.Contains(get(t, srv, "/dice").Body.String(), dice.MsgAddFailed) {
			t.Fatalf("expected add failure toast")
		}
	})
}

func TestAPIRoll(t *testing.T) {
	srv := newTestServer(t, &memStore{}, Options{})

	rec := postJSON(t, srv, "/api/rolls", `{"expression":"2d6"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Roll    rollJSON `json:"roll"`
		Message string   `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.Roll.Total != 8 || created.Roll.SessionID != store.DefaultSessionID || created.Message != "Rolled 2d6 → 8" {
		t.Fatalf("unexpected roll: %+v", created)
	}

	if rec := postJSON(t, srv, "/api/rolls", `{"expression":"d20"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid expression, got %d", rec.Code)
	}
	if rec := postJSON(t, srv, "/api/rolls", `{`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", rec.Code)
	}
}

func TestAPIRollStoreFailure(t *testing.T) {
	srv := newTestServer(t, &memStore{addErr: errors.New("disk I/O error")}, Options{})

	rec := postJSON(t, srv, "/api/rolls", `{"expression":"1d6"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), dice.MsgAddFailed) {
		t.Fatalf("expected add failure message, got %s", rec.Body.String())
	}
}

func TestAPIListRolls(t *testing.T) {
	db := &memStore{rolls: []store.RollRecord{{ID: "roll_a", Expression: "1d10", Faces: []int{7}, Total: 7}}}
	srv := newTestServer(t, db, Options{})

	rec := get(t, srv, "/api/rolls?limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if db.lastLimit != 5 {
		t.Fatalf("expected limit 5 to reach the store, got %d", db.lastLimit)
	}
	if !strings.Contains(rec.Body.String(), `"total":7`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	if rec := get(t, srv, "/api/rolls?limit=ten"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestAPICharacter(t *testing.T) {
	srv := newTestServer(t, &memStore{character: eden()}, Options{})

	rec := get(t, srv, "/api/character")
	var got characterJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Name != "Eden Vasquez" || len(got.Tiles) != 1 || got.Tiles[0].Value != "33 / 40" {
		t.Fatalf("unexpected character: %+v", got)
	}

	empty := newTestServer(t, &memStore{}, Options{})
	if rec := get(t, empty, "/api/character"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := get(t, empty, "/api/nope"); rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "not found") {
		t.Fatalf("expected JSON 404 for unknown api route")
	}
}

func TestLogPage(t *testing.T) {
	db := &memStore{
		logs: []store.LogEntry{{
			ID:         "log_001",
			AuthorType: "gm",
			Body:       "<script>alert(1)</script><b>Eden</b> jacks in",
			CreatedAt:  "2045-03-14T20:05:00Z",
		}},
		rolls: []store.RollRecord{{Expression: "2d6", Faces: []int{3, 5}, Total: 8, Created: "2045-03-14T21:00:00Z"}},
	}
	srv := newTestServer(t, db, Options{})

	body := get(t, srv, "/log").Body.String()
	if strings.Contains(body, "alert(1)") || strings.Contains(body, "<b>Eden") {
		t.Fatalf("expected markup stripped from log body")
	}
	if !strings.Contains(body, "Eden jacks in") {
		t.Fatalf("expected log text")
	}
	if !strings.Contains(body, "3 hours ago") {
		t.Fatalf("expected relative timestamp")
	}
	roll := strings.Index(body, "🎲 2d6 → 8 [3,5]")
	note := strings.Index(body, "Eden jacks in")
	if roll < 0 || roll > note {
		t.Fatalf("expected newer roll before older note")
	}
}

func TestLogSearch(t *testing.T) {
	db := &memStore{matches: []store.LogMatch{{
		LogEntry: store.LogEntry{ID: "log_002", CreatedAt: "2045-03-14T20:31:00Z"},
		Snippet:  "jacks into the club's **subnet** looking",
	}}}
	srv := newTestServer(t, db, Options{})

	body := get(t, srv, "/log?q=subnet").Body.String()
	if !strings.Contains(body, "<mark>subnet</mark>") {
		t.Fatalf("expected highlighted match, got %s", body)
	}

	db.searchErr = errors.New("fts5: syntax error")
	if !strings.Contains(get(t, srv, "/log?q=%22").Body.String(), "Search failed") {
		t.Fatalf("expected search failure notice")
	}

	rec := get(t, srv, "/api/log?q=subnet")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from failing search, got %d", rec.Code)
	}

	db.searchErr = store.ErrNoSearchTerms
	if !strings.Contains(get(t, srv, "/log?q=-eden").Body.String(), "Enter at least one search term") {
		t.Fatalf("expected a prompt for a search term")
	}
	if rec := get(t, srv, "/api/log?q=-eden"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for exclusion-only search, got %d", rec.Code)
	}
}

func TestHighlight(t *testing.T) {
	tests := map[string]string{
		"a **b** c":      "a <mark>b</mark> c",
		"no markers":     "no markers",
		"dangling **":    "dangling **",
		"<i>x</i> **y**": "x <mark>y</mark>",
	}
	for in, want := range tests {
		if got := string(highlight(in)); got != want {
			t.Fatalf("highlight(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, &memStore{}, Options{RateLimit: 0.001, RateBurst: 1})

	if rec := postJSON(t, srv, "/api/rolls", `{"expression":"1d6"}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected first roll to pass, got %d", rec.Code)
	}
	if rec := postJSON(t, srv, "/api/rolls", `{"expression":"1d6"}`); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec := get(t, srv, "/api/rolls"); rec.Code != http.StatusOK {
		t.Fatalf("expected reads to stay unlimited, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, &memStore{}, Options{})

	rec := get(t, srv, "/map")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("expected security headers, got %v", rec.Header())
	}
}

func TestRollFeed(t *testing.T) {
	srv := newTestServer(t, &memStore{}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/rolls", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/api/rolls", "application/json", strings.NewReader(`{"expression":"2d6"}`))
	if err != nil {
		t.Fatalf("post roll: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event RollEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if event.Type != "roll" || event.Total != 8 || event.Message != "Rolled 2d6 → 8" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestHubStoppedDoesNotBlockClients(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	finished := make(chan bool)
	go func() {
		for i := 0; i < 40; i++ {
			hub.leave(&Client{ID: "late"})
		}
		finished <- hub.join(&Client{ID: "later"})
	}()

	select {
	case joined := <-finished:
		if joined {
			t.Fatalf("expected a stopped hub to refuse new clients")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected leave and join to return after the hub stopped")
	}
}
