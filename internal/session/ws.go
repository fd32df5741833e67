package session

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/you/pawnduel/internal/board"
	"github.com/you/pawnduel/internal/obslog"
	"github.com/you/pawnduel/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const maxMessageSize = 4096

// ServeWS upgrades the request and binds it to the slot named by id ("1" or "2").
// A rejected bind gets an error notice and a close frame; the process carries on.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, id string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		obslog.L().Warn("ws_upgrade_failed", zap.Error(err))
		return
	}

	player := board.None
	n, err := strconv.Atoi(id)
	if err == nil {
		player, err = ParsePlayerID(n)
	} else {
		err = ErrInvalidID
	}

	var c *Client
	if err == nil {
		c, err = h.Bind(player, r.URL.Query().Get("name"), &wsTransport{conn: conn, timeout: h.wtimeout})
	}
	if err != nil {
		obslog.L().Info("bind_rejected", zap.String("id", id), zap.Error(err))
		h.reject(conn, err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if h.ping > 0 {
		wait := h.ping * 2
		_ = conn.SetReadDeadline(time.Now().Add(wait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	defer h.release(c)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				obslog.L().Info("ws_read_failed", zap.String("player", player.String()), zap.Error(err))
			}
			return
		}
		h.Handle(c, data)
	}
}

func (h *Hub) reject(conn *websocket.Conn, err error) {
	text := "Invalid player id"
	code := websocket.ClosePolicyViolation
	if errors.Is(err, ErrSlotTaken) {
		text = "Player slot already taken"
		code = websocket.CloseTryAgainLater
	}
	deadline := time.Now().Add(h.wtimeout)
	if data, encErr := protocol.Encode(protocol.NewError(text)); encErr == nil {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
	_ = conn.Close()
}
