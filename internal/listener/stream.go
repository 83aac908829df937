package listener

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pixil98/go-bunker/internal/messaging"
)

const (
	streamBuffer = 64
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// Subscriber delivers raw messages published on a subject.
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (func(), error)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// stream pushes every broadcast for a session to a websocket client,
// starting with a full snapshot.
func (a *API) stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	s, err := a.store.Get(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	msgs := make(chan []byte, streamBuffer)
	unsubscribe, err := a.bus.Subscribe(messaging.Subject(id), func(data []byte) {
		select {
		case msgs <- data:
		default:
			slog.Warn("dropping stream message for slow client", "session", id)
		}
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(ctx, "websocket upgrade failed", "session", id, "error", err)
		return
	}
	defer conn.Close()

	view := *s
	view.Log = s.LogTail(a.logLimit)
	payload, err := json.Marshal(&view)
	if err != nil {
		slog.ErrorContext(ctx, "marshalling snapshot", "session", id, "error", err)
		return
	}
	snapshot, err := json.Marshal(messaging.Envelope{Type: messaging.KindState, SessionID: id, Payload: payload})
	if err != nil {
		slog.ErrorContext(ctx, "marshalling snapshot", "session", id, "error", err)
		return
	}
	if err := write(conn, websocket.TextMessage, snapshot); err != nil {
		return
	}

	// The reader only services control frames and notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.DebugContext(ctx, "stream opened", "session", id, "remote", r.RemoteAddr)
	defer slog.DebugContext(ctx, "stream closed", "session", id, "remote", r.RemoteAddr)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-closed:
			return
		case data := <-msgs:
			if err := write(conn, websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			if err := write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func write(conn *websocket.Conn, kind int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(kind, data)
}
