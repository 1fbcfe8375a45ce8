package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

const websocketWriteTimeout = 5 * time.Second

// createWebsocketHandler streams the events of one buffer to the client
// until either side goes away.
func createWebsocketHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if _, err := registry.Get(name); err != nil {
			RespondError(w, err)
			return
		}

		// Subscribe before accepting so nothing published after the
		// handshake completes is missed.
		unsubscribe, events := registry.Subscribe()
		defer unsubscribe()

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Err(err).Msg("Websocket upgrade failed")
			return
		}
		defer c.Close(websocket.StatusInternalError, "stream ended")

		ctx := c.CloseRead(r.Context())
		for {
			select {
			case <-ctx.Done():
				c.Close(websocket.StatusNormalClosure, "")
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Buffer != name {
					continue
				}
				js, err := json.Marshal(ev)
				if err != nil {
					log.Err(err).Msg("Failed to marshal event payload for websocket")
					continue
				}
				if err := writeTimeout(ctx, websocketWriteTimeout, c, js); err != nil {
					log.Debug().Err(err).Str("buffer", name).Msg("Websocket write failed, closing")
					return
				}
			}
		}
	}
}

func writeTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return c.Write(ctx, websocket.MessageText, msg)
}
