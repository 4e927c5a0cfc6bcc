package scrollplot

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// PushInterval is how often a websocket client gets a fresh snapshot
var PushInterval = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler pushes the plot snapshot to the client until it
// goes away. Anything the client sends is read and dropped, which is
// also how a close is noticed.
func (v *View) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("Websocket upgrade failed", slog.Any("Error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(PushInterval)
	defer ticker.Stop()
	for {
		state, err := v.Engine.Snapshot(ctx)
		if err != nil {
			return
		}
		if err := conn.WriteJSON(state); err != nil {
			return // Connection closed
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
