package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	openai "github.com/sashabaranov/go-openai"
	"news-assistant/internal/auth"
	"news-assistant/internal/summarizer"
)

// WSEvent is every message the server sends on /ws/summarize
type WSEvent struct {
	Event   string `json:"event"` // "status", "summary" or "error"
	Status  string `json:"status,omitempty"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
	ID      uint   `json:"id,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}

// The zero CheckOrigin rejects cross-origin handshakes
var wsUpgrader = websocket.Upgrader{}

// WebSocket connection wrapper with mutex for thread-safe writes
type safeWSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeWSConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeWSConn) ReadMessage() (int, []byte, error) {
	return s.conn.ReadMessage()
}

func (s *safeWSConn) Close() error {
	return s.conn.Close()
}

// watchForStop cancels when the client sends {"event":"stop"} or goes away
func watchForStop(conn *safeWSConn, cancel context.CancelFunc) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			cancel() // WS closed
			return
		}
		var req map[string]interface{}
		if json.Unmarshal(msg, &req) == nil && req["event"] == "stop" {
			cancel() // Explicit stop message
			return
		}
	}
}

// GET /ws/summarize
func WSSummarizeHandler(svc Summarizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := auth.SessionID(c)

		rawConn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("[API] WebSocket upgrade failed:", err)
			return
		}
		conn := &safeWSConn{conn: rawConn}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			conn.WriteJSON(WSEvent{Event: "error", Message: "invalid initial payload", Code: http.StatusBadRequest})
			return
		}
		var req SummarizeRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			conn.WriteJSON(WSEvent{Event: "error", Message: "invalid JSON", Code: http.StatusBadRequest})
			return
		}
		if svc == nil {
			conn.WriteJSON(WSEvent{Event: "error", Message: "summarizer is not available", Code: http.StatusServiceUnavailable})
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go watchForStop(conn, cancel)

		res, err := svc.Summarize(ctx, summarizer.Request{
			SessionID: sessionID,
			Topic:     req.Topic,
			PageSize:  req.PageSize,
		}, func(status openai.RunStatus) {
			conn.WriteJSON(WSEvent{Event: "status", Status: string(status)})
		})
		if err != nil {
			log.Printf("[API] WebSocket summarize failed for session %s: %v", sessionID, err)
			conn.WriteJSON(WSEvent{Event: "error", Message: err.Error(), Code: statusForError(err)})
			return
		}
		conn.WriteJSON(WSEvent{Event: "summary", Text: res.Summary, ID: res.ID, RunID: res.RunID})
	}
}
