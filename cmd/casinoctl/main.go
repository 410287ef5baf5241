// casinoctl is a command-line websocket client for poking at a running
// casinosrv: create or enter tables, place bets, act on a hand, and watch the
// notification stream.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
)

type frame struct {
	Op      string `json:"op"`
	TableID string `json:"tableId,omitempty"`
	Code    string `json:"code,omitempty"`
	Seat    int    `json:"seat,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
	Action  string `json:"action,omitempty"`

	Name     string `json:"name,omitempty"`
	Private  bool   `json:"private,omitempty"`
	MaxSeats int    `json:"maxSeats,omitempty"`
	MinBet   int64  `json:"minBet,omitempty"`
	MaxBet   int64  `json:"maxBet,omitempty"`
}

func main() {
	var (
		addr   string
		email  string
		follow bool
		f      frame
	)
	flag.StringVar(&addr, "addr", "127.0.0.1:8080", "Server host:port")
	flag.StringVar(&email, "email", "", "Identity to connect as (required)")
	flag.BoolVar(&follow, "follow", false, "Keep printing notifications until interrupted")
	flag.StringVar(&f.Op, "op", "listTables", "Operation: register, createTable, closeTable, authorize, enterTable, leaveTable, watch, unwatch, bet, action, listTables")
	flag.StringVar(&f.TableID, "table", "", "Table id")
	flag.StringVar(&f.Code, "code", "", "Access code for private tables")
	flag.IntVar(&f.Seat, "seat", -1, "Seat index (-1 = resolve by identity)")
	flag.Int64Var(&f.Amount, "amount", 0, "Bet amount")
	flag.StringVar(&f.Action, "action", "", "Turn action: HIT, STAND, DOUBLE")
	flag.StringVar(&f.Name, "name", "", "Table name (createTable)")
	flag.BoolVar(&f.Private, "private", false, "Create a private table")
	flag.IntVar(&f.MaxSeats, "maxseats", 0, "Seat count (createTable)")
	flag.Int64Var(&f.MinBet, "minbet", 0, "Minimum bet (createTable)")
	flag.Int64Var(&f.MaxBet, "maxbet", 0, "Maximum bet (createTable)")
	flag.Parse()

	if email == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		os.Exit(1)
	}

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws", RawQuery: "email=" + url.QueryEscape(email)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", u.String(), err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := conn.WriteJSON(&f); err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var pretty json.RawMessage = message
			if out, err := json.MarshalIndent(pretty, "", "  "); err == nil {
				fmt.Println(string(out))
			} else {
				fmt.Println(string(message))
			}
			if !follow {
				return
			}
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
	case <-interrupt:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
