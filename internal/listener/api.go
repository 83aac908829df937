package listener

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/hexmap"
	"github.com/pixil98/go-bunker/internal/session"
)

const maxBodyBytes = 64 << 10

// API exposes the session store over HTTP.
type API struct {
	store    *session.Store
	bus      Subscriber
	logLimit int
	limiter  *ipLimiter
}

func NewAPI(store *session.Store, bus Subscriber, opts ...APIOpt) *API {
	a := &API{
		store:    store,
		bus:      bus,
		logLimit: 50,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the routed API, rate limited when a limit is configured.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/sessions", a.createSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", a.handle(a.getSession))
	mux.HandleFunc("POST /api/v1/sessions/{id}/join", a.handle(a.join))
	mux.HandleFunc("POST /api/v1/sessions/{id}/start", a.handle(a.start))
	mux.HandleFunc("POST /api/v1/sessions/{id}/pause", a.handle(a.pause))
	mux.HandleFunc("POST /api/v1/sessions/{id}/resume", a.handle(a.resume))
	mux.HandleFunc("POST /api/v1/sessions/{id}/end", a.handle(a.end))
	mux.HandleFunc("GET /api/v1/sessions/{id}/trader", a.handle(a.traderInventory))
	mux.HandleFunc("GET /api/v1/sessions/{id}/map", a.handle(a.sessionMap))
	mux.HandleFunc("GET /api/v1/sessions/{id}/stream", a.stream)

	player := "/api/v1/sessions/{id}/players/{pid}/"
	mux.HandleFunc("POST "+player+"role", a.handle(a.selectRole))
	mux.HandleFunc("POST "+player+"enter-zone", a.handle(a.enterZone))
	mux.HandleFunc("POST "+player+"zone-action", a.handle(a.zoneAction))
	mux.HandleFunc("POST "+player+"resolve-option", a.handle(a.resolveOption))
	mux.HandleFunc("POST "+player+"complete-battle", a.handle(a.completeBattle))
	mux.HandleFunc("POST "+player+"consume-transition", a.handle(a.consumeTransition))
	mux.HandleFunc("POST "+player+"transfer-to-base", a.handle(a.transferToBase))
	mux.HandleFunc("POST "+player+"move", a.handle(a.move))
	mux.HandleFunc("POST "+player+"buy", a.handle(a.buy))
	mux.HandleFunc("POST "+player+"sell", a.handle(a.sell))

	if a.limiter == nil {
		return mux
	}
	return a.limiter.Middleware(mux)
}

// handle adapts fn into a handler that writes its result as JSON.
func (a *API) handle(fn func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		v, err := fn(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, a.trimLog(v))
	}
}

// trimLog caps the session log carried by v to the last logLimit entries.
// States are copied so the stored session keeps its full log.
func (a *API) trimLog(v any) any {
	switch res := v.(type) {
	case *game.SessionState:
		return a.tail(res)
	case joinResponse:
		res.State = a.tail(res.State)
		return res
	case *session.EnterZoneResult:
		res.State = a.tail(res.State)
	case *session.ZoneActionResult:
		res.State = a.tail(res.State)
	case *session.ResolveResult:
		res.State = a.tail(res.State)
	case *session.TransitionResult:
		res.State = a.tail(res.State)
	case *session.TransferResult:
		res.State = a.tail(res.State)
	case *session.MoveResult:
		res.State = a.tail(res.State)
	case *session.TradeResult:
		res.State = a.tail(res.State)
	}
	return v
}

func (a *API) tail(s *game.SessionState) *game.SessionState {
	if s == nil || a.logLimit <= 0 || len(s.Log) <= a.logLimit {
		return s
	}
	c := *s
	c.Log = s.LogTail(a.logLimit)
	return &c
}

// decodeRequest reads a JSON body into v. An empty body leaves v untouched.
func decodeRequest(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding request body: %w: %w", game.ErrInvalidRequest, err)
	}
	return nil
}

func (a *API) createSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req session.CreateParams
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := a.store.CreateSession(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a.tail(s))
}

func (a *API) getSession(r *http.Request) (any, error) {
	return a.store.Get(r.Context(), r.PathValue("id"))
}

type joinRequest struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type joinResponse struct {
	PlayerID string             `json:"playerId"`
	State    *game.SessionState `json:"state"`
}

func (a *API) join(r *http.Request) (any, error) {
	var req joinRequest
	if err := decodeRequest(r, &req); err != nil {
		return nil, err
	}
	s, pid, err := a.store.Join(r.Context(), r.PathValue("id"), req.PlayerID, req.Name)
	if err != nil {
		return nil, err
	}
	return joinResponse{PlayerID: pid, State: s}, nil
}

func (a *API) start(r *http.Request) (any, error) {
	return a.store.Start(r.Context(), r.PathValue("id"))
}

func (a *API) pause(r *http.Request) (any, error) {
	return a.store.Pause(r.Context(), r.PathValue("id"))
}

func (a *API) resume(r *http.Request) (any, error) {
	return a.store.Resume(r.Context(), r.PathValue("id"))
}

func (a *API) end(r *http.Request) (any, error) {
	return a.store.End(r.Context(), r.PathValue("id"))
}

type traderResponse struct {
	Stock []game.StockEntry `json:"stock"`
}

func (a *API) traderInventory(r *http.Request) (any, error) {
	stock, err := a.store.GetTraderInventory(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	return traderResponse{Stock: stock}, nil
}

func (a *API) sessionMap(r *http.Request) (any, error) {
	return a.store.Map(r.Context(), r.PathValue("id"))
}

type roleRequest struct {
	Role game.Role `json:"role"`
}

func (a *API) selectRole(r *http.Request) (any, error) {
	var req roleRequest
	if err := decodeRequest(r, &req); err != nil {
		return nil, err
	}
	return a.store.SelectRole(r.Context(), r.PathValue("id"), r.PathValue("pid"), req.Role)
}

type zoneRequest struct {
	ZoneID   string `json:"zoneId"`
	ActionID string `json:"actionId"`
}

func (a *API) enterZone(r *http.Request) (any, error) {
	var req zoneRequest
	if err := decodeRequest(r, &req); err != nil {
		return nil, err
	}
	return a.store.EnterZone(r.Context(), r.PathValue("id"), r.PathValue("pid"), req.ZoneID)
}

func (a *API) zoneAction(r *http.Request) (any, error) {
	var req zoneRequest
	if err := decodeRequest(r, &req); err != nil {
		return nil, err
	}
	return a.store.StartZoneAction(r.Context(), r.PathValue("id"), r.PathValue("pid"), req.ZoneID, req.ActionID)
}

type resolveRequest struct {
	EventID  string `json:"eventId"`
	OptionID string `json:"optionId"`
}

func (a *API) resolveOption(r *http.Request) (any, error) {
	var req resolveRequest
	if err := decodeRequest(r, &req); err != nil {
		return nil, err
	}
	return a.store.ResolveOption(r.Context(), r.PathValue("id"), r.PathValue("pid"), req.EventID, req.OptionID)
}

type battleRequest struct {
	Won     bool `json:"won"`
	FinalHP int  `json:"finalHp"`
}

func (a *API) completeBattle(r *http.Request) (any, error) {
	var req battleRequest
	if err := decodeRequest(r, &req); err != nil {
		return nil, err
	}
	return a.store.CompleteBattle(r.Context(), r.PathValue("id"), r.PathValue("pid"), req.Won, req.FinalHP)
}

func (a *API) consumeTransition(r *http.Request) (any, error) {
	return a.store.ConsumeTransition(r.Context(), r.PathValue("id"), r.PathValue("pid"))
}

func (a *API) transferToBase(r *http.Request) (any, error) {
	return a.store.TransferToBase(r.Context(), r.PathValue("id"), r.PathValue("pid"))
}

type moveRequest struct {
	Target *hexmap.Coord `json:"target"`
}

func (a *API) move(r *http.Request) (any, error) {
	var req moveRequest
	if err := decodeRequest(r, &req); err != nil {
		return nil, err
	}
	if req.Target == nil {
		return nil, fmt.Errorf("target is required: %w", game.ErrInvalidTarget)
	}
	return a.store.Move(r.Context(), r.PathValue("id"), r.PathValue("pid"), *req.Target)
}

type tradeRequest struct {
	TemplateID string `json:"templateId"`
	Quantity   int    `json:"quantity"`
}

func (a *API) buy(r *http.Request) (any, error) {
	var req tradeRequest
	if err := decodeRequest(r, &req); err != nil {
		return nil, err
	}
	return a.store.Buy(r.Context(), r.PathValue("id"), r.PathValue("pid"), req.TemplateID, req.Quantity)
}

func (a *API) sell(r *http.Request) (any, error) {
	var req tradeRequest
	if err := decodeRequest(r, &req); err != nil {
		return nil, err
	}
	return a.store.Sell(r.Context(), r.PathValue("id"), r.PathValue("pid"), req.TemplateID, req.Quantity)
}
