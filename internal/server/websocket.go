package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/plaza-world/plaza/internal/game"
	"github.com/plaza-world/plaza/internal/model"
	"github.com/plaza-world/plaza/internal/moderation"
	"github.com/plaza-world/plaza/internal/protocol"
	"github.com/plaza-world/plaza/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// connectWait bounds how long a fresh socket may sit silent before its
	// connect message arrives
	connectWait = 10 * time.Second

	// maxMessageSize leaves headroom over the drawing byte limit for
	// base64 expansion and the JSON envelope
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades game connections and runs their read/write pumps
type WSHandler struct {
	processor  *game.Processor
	sessions   *session.Registry
	moderation *moderation.Service
	logger     *slog.Logger
}

// NewWSHandler creates the websocket entry point
func NewWSHandler(processor *game.Processor, sessions *session.Registry, mod *moderation.Service, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		processor:  processor,
		sessions:   sessions,
		moderation: mod,
		logger:     logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP upgrades the connection. Banned IPs are refused before the
// upgrade so they never reach the game pipeline.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	if err := h.moderation.CheckIP(ip); err != nil {
		h.logger.Info("refused banned ip", slog.String("ip", ip))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", slog.String("error", err.Error()))
		return
	}

	go h.serve(conn, ip)
}

// serve runs the connect handshake, then splits into pumps
func (h *WSHandler) serve(conn *websocket.Conn, ip string) {
	conn.SetReadLimit(maxMessageSize)

	client, err := h.handshake(conn, ip)
	if err != nil {
		h.closeWithError(conn, err)
		return
	}

	go h.writePump(conn, client)
	h.readPump(conn, client)
}

// handshake reads the mandatory first frame and admits the client
func (h *WSHandler) handshake(conn *websocket.Conn, ip string) (*session.Client, error) {
	_ = conn.SetReadDeadline(time.Now().Add(connectWait))

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		return nil, errProtocol
	}
	if msg.Type != protocol.MsgConnect {
		return nil, errProtocol
	}

	var payload protocol.ConnectPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, errProtocol
	}

	return h.processor.Connect(context.Background(), ip, payload)
}

// readPump reads client frames until the socket dies, feeding each action to
// the processor. Validation failures go back to the sender only; a frame
// that is not even valid protocol closes the connection.
func (h *WSHandler) readPump(conn *websocket.Conn, client *session.Client) {
	defer func() {
		h.processor.Disconnect(client.ID)
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read error",
					slog.Uint64("client_id", uint64(client.ID)),
					slog.String("error", err.Error()))
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			h.queueError(client.ID, protocol.ErrCodeProtocol, "malformed message")
			return
		}

		if err := h.processor.HandleAction(context.Background(), client.ID, msg); err != nil {
			code, fatal := classify(err)
			h.queueError(client.ID, code, err.Error())
			if fatal {
				return
			}
		}
	}
}

// queueError sends an error frame through the client's outbound queue, so it
// never races the write pump. Queued frames still drain after an unregister.
func (h *WSHandler) queueError(id model.ClientID, code protocol.ErrorCode, reason string) {
	data, err := protocol.Encode(protocol.MsgError, protocol.ErrorPayload{
		Code:   code,
		Reason: reason,
	})
	if err != nil {
		return
	}
	_ = h.sessions.SendTo(id, data)
}

// writePump drains the client's outbound queue onto the socket and keeps the
// connection alive with pings. A closed queue means the client was
// unregistered; the pump says goodbye and exits.
func (h *WSHandler) writePump(conn *websocket.Conn, client *session.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case data, open := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// errProtocol marks frames that fail before reaching the game pipeline
var errProtocol = errors.New("protocol error")

// classify maps a pipeline error to a wire code and whether the connection
// should be dropped
func classify(err error) (protocol.ErrorCode, bool) {
	switch {
	case errors.Is(err, model.ErrOutOfBounds):
		return protocol.ErrCodeOutOfBounds, false
	case errors.Is(err, model.ErrMessageRejected):
		return protocol.ErrCodeMessageRejected, false
	case errors.Is(err, model.ErrMessageTooLong):
		return protocol.ErrCodeMessageTooLong, false
	case errors.Is(err, model.ErrDrawingTooLarge), errors.Is(err, model.ErrEmptyDrawing):
		return protocol.ErrCodeDrawingInvalid, false
	case errors.Is(err, model.ErrAlreadyConnected):
		return protocol.ErrCodeAlreadyConnect, false
	case errors.Is(err, model.ErrNotConnected):
		return protocol.ErrCodeNotConnected, true
	case errors.Is(err, model.ErrIPBanned):
		return protocol.ErrCodeBanned, true
	case errors.Is(err, model.ErrIPAlreadyConnected):
		return protocol.ErrCodeAlreadyConnect, true
	case errors.Is(err, model.ErrInvalidCredentials):
		return protocol.ErrCodeBadCredentials, true
	case errors.Is(err, errProtocol):
		return protocol.ErrCodeProtocol, true
	default:
		return protocol.ErrCodeProtocol, true
	}
}

// closeWithError reports a handshake failure on the raw socket and closes it
func (h *WSHandler) closeWithError(conn *websocket.Conn, err error) {
	code, _ := classify(err)
	h.sendError(conn, code, err.Error())
	_ = conn.Close()
}

func (h *WSHandler) sendError(conn *websocket.Conn, code protocol.ErrorCode, reason string) {
	data, err := protocol.Encode(protocol.MsgError, protocol.ErrorPayload{
		Code:   code,
		Reason: reason,
	})
	if err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

// clientIP resolves the remote address. Reverse-proxy headers are honored
// only when the direct peer is loopback, where the proxy runs; a remote peer
// presenting them could otherwise spoof its way past IP bans.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	if peer := net.ParseIP(host); peer != nil && peer.IsLoopback() {
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return ip
		}
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			parts := strings.Split(fwd, ",")
			return strings.TrimSpace(parts[0])
		}
	}
	return host
}
