// Package gateway exposes the casino server over websocket connections. Each
// client connects with its identity in the query string, receives the server's
// notification stream, and submits table commands as JSON frames.
package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/slog"
	"github.com/gorilla/websocket"

	"github.com/team-evalux/CasinoBack-sub000/pkg/blackjack"
	"github.com/team-evalux/CasinoBack-sub000/pkg/server"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxMessageSize = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins once the web client's host is fixed
	},
}

// ClientFrame is one inbound command. Op selects the operation; the remaining
// fields are read as each operation needs them.
type ClientFrame struct {
	Op      string `json:"op"`
	TableID string `json:"tableId,omitempty"`
	Code    string `json:"code,omitempty"`
	Seat    int    `json:"seat,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
	Action  string `json:"action,omitempty"`

	// Table creation options.
	Name     string `json:"name,omitempty"`
	Private  bool   `json:"private,omitempty"`
	MaxSeats int    `json:"maxSeats,omitempty"`
	MinBet   int64  `json:"minBet,omitempty"`
	MaxBet   int64  `json:"maxBet,omitempty"`
}

// Gateway upgrades websocket connections and bridges them onto the server.
type Gateway struct {
	log slog.Logger
	srv *server.Server
}

// New creates a gateway in front of srv.
func New(log slog.Logger, srv *server.Server) *Gateway {
	return &Gateway{log: log, srv: srv}
}

// HandleWebSocket upgrades the request and runs the connection until it
// drops. Identity comes from the email query parameter.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Errorf("upgrade: %v", err)
		return
	}

	stream := g.srv.Subscribe(email)
	g.srv.MarkReconnected(email)
	g.log.Infof("client connected: %s", email)

	c := &connection{
		gateway: g,
		email:   email,
		conn:    conn,
		stream:  stream,
	}
	go c.writePump()
	c.readPump()
}

type connection struct {
	gateway *Gateway
	email   string
	conn    *websocket.Conn
	stream  *server.NotificationStream
}

func (c *connection) readPump() {
	g := c.gateway
	defer func() {
		// A reconnecting client replaces its stream before this teardown
		// runs; only the connection still holding the registered stream may
		// mark the identity disconnected, or the stale teardown would strand
		// a live player's seat in DISCONNECTED.
		if g.srv.Unsubscribe(c.email, c.stream) {
			g.srv.MarkDisconnected(c.email)
		}
		c.conn.Close()
		g.log.Infof("client disconnected: %s", c.email)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Debugf("read from %s: %v", c.email, err)
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			g.log.Warnf("undecodable frame from %s: %s", c.email, spew.Sdump(string(message)))
			continue
		}
		c.handleFrame(&frame)
	}
}

func (c *connection) handleFrame(frame *ClientFrame) {
	g := c.gateway
	srv := g.srv

	var err error
	switch frame.Op {
	case "createTable":
		_, err = srv.CreateTable(c.email, server.CreateTableParams{
			Name:       frame.Name,
			Private:    frame.Private,
			AccessCode: frame.Code,
			MaxSeats:   frame.MaxSeats,
			MinBet:     frame.MinBet,
			MaxBet:     frame.MaxBet,
		})
	case "closeTable":
		err = srv.CloseTable(c.email, frame.TableID)
	case "authorize":
		err = srv.AuthorizeEmail(c.email, frame.TableID, frame.Code)
	case "enterTable":
		// An access code sent with the enter request authorizes first, so
		// private tables can be joined in one round trip.
		if frame.Code != "" {
			err = srv.AuthorizeEmail(c.email, frame.TableID, frame.Code)
		}
		if err == nil {
			_, err = srv.EnterTable(c.email, frame.TableID)
		}
	case "leaveTable":
		err = srv.LeaveTable(c.email, frame.TableID)
	case "watch":
		err = srv.Watch(c.email, frame.TableID)
	case "unwatch":
		srv.Unwatch(c.email, frame.TableID)
	case "bet":
		err = srv.PlaceBet(c.email, frame.TableID, frame.Seat, frame.Amount)
	case "action":
		err = srv.Action(c.email, frame.TableID, frame.Seat, frame.Action)
	case "register":
		err = srv.RegisterAccount(c.email, frame.Name, frame.Amount)
	case "listTables":
		c.sendLobby()
	default:
		g.log.Warnf("unknown op %q from %s", frame.Op, c.email)
		return
	}
	if err != nil {
		// The server already pushed a targeted error notification for
		// table commands; log the rest at debug.
		g.log.Debugf("op %s from %s: %v", frame.Op, c.email, err)
	}
}

// sendLobby answers a lobby listing request. The notification goes through
// the stream so the write pump stays the connection's only writer.
func (c *connection) sendLobby() {
	summaries := c.gateway.srv.ListTables()
	data, err := json.Marshal(summaries)
	if err != nil {
		return
	}
	select {
	case c.stream.C <- &server.Notification{Type: blackjack.EventLobbyUpdate, Data: data}:
	default:
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case n, ok := <-c.stream.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-c.stream.Done:
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
