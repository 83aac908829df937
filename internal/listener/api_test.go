package listener

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/game/gametest"
	"github.com/pixil98/go-bunker/internal/messaging"
	"github.com/pixil98/go-bunker/internal/persistence"
	"github.com/pixil98/go-bunker/internal/session"
)

// fakeBus delivers published messages to subscribers synchronously.
type fakeBus struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func([]byte)
}

func newFakeBus() *fakeBus {
	return &fakeBus{subs: map[string]map[int]func([]byte){}}
}

func (b *fakeBus) Subscribe(subject string, handler func([]byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[subject] == nil {
		b.subs[subject] = map[int]func([]byte){}
	}
	id := b.next
	b.next++
	b.subs[subject][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[subject], id)
	}, nil
}

func (b *fakeBus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	var handlers []func([]byte)
	for _, h := range b.subs[subject] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h(data)
	}
	return nil
}

type firstRoller struct{}

func (firstRoller) Float64() float64 { return 0 }
func (firstRoller) IntN(int) int     { return 0 }

func newTestAPI(t *testing.T, opts ...APIOpt) *API {
	t.Helper()
	bus := newFakeBus()
	repo := persistence.NewMemoryRepository()
	store := session.NewStore(session.DefaultConfig(), gametest.Dictionary(), repo, session.NewPersister(repo, time.Second),
		session.WithNotifier(messaging.NewBroadcaster(bus, 50)),
		session.WithRoller(firstRoller{}),
	)
	return NewAPI(store, bus, opts...)
}

type response struct {
	status int
	body   map[string]any
}

func do(t *testing.T, h http.Handler, method, path, body string) response {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := response{status: rec.Code}
	if err := json.Unmarshal(rec.Body.Bytes(), &out.body); err != nil {
		t.Fatalf("decoding %s %s response %q: %v", method, path, rec.Body.String(), err)
	}
	return out
}

// startedSession creates an active session with players p1 and p2.
func startedSession(t *testing.T, h http.Handler) string {
	t.Helper()
	created := do(t, h, http.MethodPost, "/api/v1/sessions", `{"seed":12345}`)
	testutil.AssertEqual(t, "create status", created.status, http.StatusCreated)
	id, _ := created.body["sessionId"].(string)

	for _, p := range []string{"p1", "p2"} {
		res := do(t, h, http.MethodPost, "/api/v1/sessions/"+id+"/join", `{"playerId":"`+p+`","name":"`+p+`"}`)
		testutil.AssertEqual(t, "join status", res.status, http.StatusOK)
	}
	res := do(t, h, http.MethodPost, "/api/v1/sessions/"+id+"/start", "")
	testutil.AssertEqual(t, "start status", res.status, http.StatusOK)
	return id
}

func TestAPI_Errors(t *testing.T) {
	h := newTestAPI(t).Handler()
	id := startedSession(t, h)
	base := "/api/v1/sessions/" + id

	tests := map[string]struct {
		method    string
		path      string
		body      string
		expStatus int
		expCode   string
	}{
		"unknown session": {
			method: http.MethodGet, path: "/api/v1/sessions/missing",
			expStatus: http.StatusNotFound, expCode: "session_not_found",
		},
		"malformed body": {
			method: http.MethodPost, path: base + "/join", body: `{"name":`,
			expStatus: http.StatusBadRequest, expCode: "invalid_request",
		},
		"unknown field": {
			method: http.MethodPost, path: base + "/join", body: `{"nick":"x"}`,
			expStatus: http.StatusBadRequest, expCode: "invalid_request",
		},
		"invalid radius": {
			method: http.MethodPost, path: "/api/v1/sessions", body: `{"radius":100}`,
			expStatus: http.StatusBadRequest, expCode: "invalid_request",
		},
		"invalid role": {
			method: http.MethodPost, path: base + "/players/p1/role", body: `{"role":"wizard"}`,
			expStatus: http.StatusBadRequest, expCode: "invalid_role",
		},
		"unknown player": {
			method: http.MethodPost, path: base + "/players/ghost/enter-zone", body: `{"zoneId":"kitchen"}`,
			expStatus: http.StatusNotFound, expCode: "player_not_found",
		},
		"start twice": {
			method: http.MethodPost, path: base + "/start",
			expStatus: http.StatusConflict, expCode: "session_not_lobby",
		},
		"no trader": {
			method: http.MethodGet, path: base + "/trader",
			expStatus: http.StatusConflict, expCode: "no_trader",
		},
		"move without target": {
			method: http.MethodPost, path: base + "/players/p1/move", body: `{}`,
			expStatus: http.StatusBadRequest, expCode: "invalid_target",
		},
		"move into water": {
			method: http.MethodPost, path: base + "/players/p1/move", body: `{"target":{"q":-2,"r":2}}`,
			expStatus: http.StatusBadRequest, expCode: "invalid_target",
		},
		"buy nothing": {
			method: http.MethodPost, path: base + "/players/p1/buy", body: `{"templateId":"scrap","quantity":0}`,
			expStatus: http.StatusBadRequest, expCode: "invalid_quantity",
		},
		"sell without trader": {
			method: http.MethodPost, path: base + "/players/p1/sell", body: `{"templateId":"scrap","quantity":1}`,
			expStatus: http.StatusConflict, expCode: "no_trader",
		},
		"no pending battle": {
			method: http.MethodPost, path: base + "/players/p1/complete-battle", body: `{"won":true,"finalHp":5}`,
			expStatus: http.StatusConflict, expCode: "no_pending_battle",
		},
		"no pending transition": {
			method: http.MethodPost, path: base + "/players/p1/consume-transition",
			expStatus: http.StatusConflict, expCode: "no_pending_transition",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res := do(t, h, tt.method, tt.path, tt.body)
			testutil.AssertEqual(t, "status", res.status, tt.expStatus)
			testutil.AssertEqual(t, "code", res.body["error"], tt.expCode)
		})
	}
}

func TestAPI_ZoneActionConflict(t *testing.T) {
	h := newTestAPI(t).Handler()
	id := startedSession(t, h)
	base := "/api/v1/sessions/" + id + "/players/"

	res := do(t, h, http.MethodPost, base+"p1/enter-zone", `{"zoneId":"kitchen"}`)
	testutil.AssertEqual(t, "enter status", res.status, http.StatusOK)
	event, _ := res.body["event"].(map[string]any)
	testutil.AssertEqual(t, "event", event["id"], "rats")

	res = do(t, h, http.MethodPost, base+"p1/zone-action", `{"zoneId":"kitchen","actionId":"scavenge"}`)
	testutil.AssertEqual(t, "winner status", res.status, http.StatusOK)

	res = do(t, h, http.MethodPost, base+"p2/zone-action", `{"zoneId":"kitchen","actionId":"scavenge"}`)
	testutil.AssertEqual(t, "loser status", res.status, http.StatusConflict)
	testutil.AssertEqual(t, "loser code", res.body["error"], game.ErrZoneActionBusy.Code)

	res = do(t, h, http.MethodPost, base+"p1/resolve-option", `{"eventId":"rats","optionId":"flee"}`)
	testutil.AssertEqual(t, "resolve status", res.status, http.StatusOK)
	testutil.AssertEqual(t, "success", res.body["success"], true)

	res = do(t, h, http.MethodPost, base+"p1/transfer-to-base", "")
	testutil.AssertEqual(t, "transfer status", res.status, http.StatusConflict)
	testutil.AssertEqual(t, "transfer code", res.body["error"], "not_at_base")
}

func TestAPI_LogLimit(t *testing.T) {
	api := newTestAPI(t, WithLogLimit(2))
	h := api.Handler()
	id := startedSession(t, h)
	base := "/api/v1/sessions/" + id

	lastText := func(res response) (int, string) {
		state := res.body
		if nested, ok := res.body["state"].(map[string]any); ok {
			state = nested
		}
		log, _ := state["log"].([]any)
		if len(log) == 0 {
			return 0, ""
		}
		last, _ := log[len(log)-1].(map[string]any)
		text, _ := last["text"].(string)
		return len(log), text
	}

	res := do(t, h, http.MethodGet, base, "")
	n, _ := lastText(res)
	testutil.AssertEqual(t, "get log", n, 2)

	res = do(t, h, http.MethodPost, base+"/join", `{"playerId":"p3","name":"Cleo"}`)
	n, text := lastText(res)
	testutil.AssertEqual(t, "join log", n, 2)
	testutil.AssertEqual(t, "join newest", text, "Cleo joined")

	res = do(t, h, http.MethodPost, base+"/players/p1/enter-zone", `{"zoneId":"kitchen"}`)
	n, _ = lastText(res)
	testutil.AssertEqual(t, "enter log", n, 2)

	s, err := api.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("getting session: %v", err)
	}
	if len(s.Log) <= 2 {
		t.Errorf("expected the stored log to keep every entry, got %d", len(s.Log))
	}
}

func TestAPI_Map(t *testing.T) {
	h := newTestAPI(t).Handler()
	id := startedSession(t, h)

	res := do(t, h, http.MethodPost, "/api/v1/sessions/"+id+"/players/p1/move", `{"target":{"q":1,"r":0}}`)
	testutil.AssertEqual(t, "move status", res.status, http.StatusOK)

	res = do(t, h, http.MethodGet, "/api/v1/sessions/"+id+"/map", "")
	testutil.AssertEqual(t, "map status", res.status, http.StatusOK)
	cells, _ := res.body["cells"].([]any)
	testutil.AssertEqual(t, "cells", len(cells), 217)
	players, _ := res.body["players"].([]any)
	testutil.AssertEqual(t, "players", len(players), 2)
}

func TestAPI_RateLimit(t *testing.T) {
	h := newTestAPI(t, WithRateLimit(0.001, 2)).Handler()

	var statuses []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/missing", nil)
		req.RemoteAddr = "192.0.2.1:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}
	testutil.AssertEqual(t, "statuses", statuses, []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/missing", nil)
	req.RemoteAddr = "192.0.2.2:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	testutil.AssertEqual(t, "other client", rec.Code, http.StatusNotFound)
}

func readEnvelope(t *testing.T, conn *websocket.Conn) messaging.Envelope {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("setting deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	var env messaging.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	return env
}

func TestAPI_Stream(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.Handler())
	defer srv.Close()
	h := api.Handler()

	id := startedSession(t, h)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + id + "/stream"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing stream: %v", err)
	}
	defer conn.Close()

	env := readEnvelope(t, conn)
	testutil.AssertEqual(t, "snapshot type", env.Type, messaging.KindState)
	testutil.AssertEqual(t, "snapshot session", env.SessionID, id)

	resp, err := http.Post(srv.URL+"/api/v1/sessions/"+id+"/players/p1/role", "application/json", bytes.NewBufferString(`{"role":"medic"}`))
	if err != nil {
		t.Fatalf("selecting role: %v", err)
	}
	resp.Body.Close()

	env = readEnvelope(t, conn)
	testutil.AssertEqual(t, "log type", env.Type, messaging.KindLog)
	var entry game.LogEntry
	if err := json.Unmarshal(env.Payload, &entry); err != nil {
		t.Fatalf("decoding log entry: %v", err)
	}
	testutil.AssertEqual(t, "log text", entry.Text, "p1 is now a medic")

	env = readEnvelope(t, conn)
	testutil.AssertEqual(t, "state type", env.Type, messaging.KindState)
	var s game.SessionState
	if err := json.Unmarshal(env.Payload, &s); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	testutil.AssertEqual(t, "role", s.Players["p1"].Role, game.RoleMedic)
}

func TestAPI_StreamUnknownSession(t *testing.T) {
	srv := httptest.NewServer(newTestAPI(t).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	testutil.AssertEqual(t, "status", resp.StatusCode, http.StatusNotFound)
}
