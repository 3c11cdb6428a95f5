package widget

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/supreme-chatbot/internal/model/chat"
)

const (
	pingInterval = 54 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

type outgoingMessage struct {
	Type      string        `json:"type"`
	SessionID string        `json:"sessionId"`
	Data      chat.Snapshot `json:"data"`
	Timestamp int64         `json:"timestamp"`
}

// handleWebSocket pushes a snapshot on connect and after every state change.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookup(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	if !h.track(conn) {
		return
	}
	defer h.untrack(conn)

	sessionID := chi.URLParam(r, "sessionID")
	logger := h.log.With().Str("session", sessionID).Logger()
	logger.Debug().Msg("websocket connected")

	// Only the latest snapshot matters; a slow client skips intermediate ones.
	updates := make(chan chat.Snapshot, 1)
	var (
		pushMu sync.Mutex
		newest chat.Snapshot
		pushed bool
	)
	push := func(s chat.Snapshot) {
		pushMu.Lock()
		defer pushMu.Unlock()
		if pushed && !s.NewerThan(newest) {
			return
		}
		newest, pushed = s, true

		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}
	cancel := conv.Subscribe(push)
	defer cancel()
	push(conv.Snapshot())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug().Err(err).Msg("websocket read error")
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			logger.Debug().Msg("websocket closed")
			return
		case <-r.Context().Done():
			return
		case snap := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			msg := outgoingMessage{
				Type:      "snapshot",
				SessionID: sessionID,
				Data:      snap,
				Timestamp: time.Now().Unix(),
			}
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// track registers conn so Wait can close it. It reports false once Wait has
// started draining.
func (h *Handler) track(conn *websocket.Conn) bool {
	h.socketsMu.Lock()
	defer h.socketsMu.Unlock()
	if h.sockets == nil {
		return false
	}
	h.sockets[conn] = struct{}{}
	h.socketsWG.Add(1)
	return true
}

func (h *Handler) untrack(conn *websocket.Conn) {
	h.socketsMu.Lock()
	delete(h.sockets, conn)
	h.socketsMu.Unlock()
	h.socketsWG.Done()
}
