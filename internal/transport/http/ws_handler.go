package http

import (
	"context"
	"encoding/json"
	"net/http"

	"course-trivia-service/internal/app"
	"course-trivia-service/internal/domain"
	"github.com/google/logger"
	"github.com/gorilla/websocket"
)

// WSHandler runs one player's trivia game over a websocket.
type WSHandler struct {
	games    *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(games *app.GameService) *WSHandler {
	return &WSHandler{
		games: games,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type choosePayload struct {
	Option string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

const msgSnapshot = "snapshot"

// ServeWS upgrades the request and maps inbound messages onto game commands.
// Every command is answered with a snapshot (or an error); game events such as
// time-outs are streamed as they happen.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warningf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	ctx := r.Context()

	send := make(chan outboundMessage[any], 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warningf("ws write error: %v", err)
				return
			}
		}
	}()
	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	feed := &eventFeed{push: push}
	follow := func(snap domain.GameSnapshot) {
		if snap.GameID == "" || snap.GameID == feed.gameID {
			return
		}
		events, cancel, err := h.games.Subscribe(ctx, userID)
		if err != nil {
			return
		}
		feed.follow(snap.GameID, events, cancel)
	}
	respond := func(snap domain.GameSnapshot, err error) {
		if err != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		follow(snap)
		push(outboundMessage[any]{Type: msgSnapshot, Payload: snap})
	}

	// resume a game started by an earlier connection
	if snap, err := h.games.Snapshot(ctx, userID); err == nil {
		respond(snap, nil)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			respond(h.games.Start(ctx, userID))
		case "choose":
			var payload choosePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == "" {
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid choose payload"}})
				continue
			}
			respond(h.games.Choose(ctx, userID, payload.Option))
		case "submit":
			respond(h.games.Submit(ctx, userID))
		case "advance":
			respond(h.games.Advance(ctx, userID))
		case "restart":
			respond(h.games.Restart(ctx, userID))
		case "end":
			respond(h.games.EndEarly(ctx, userID))
		case "claim":
			respond(h.claim(ctx, userID))
		case msgSnapshot:
			respond(h.games.Snapshot(ctx, userID))
		default:
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	gameID := feed.gameID
	feed.stop()
	close(send)
	<-writerDone
	if gameID != "" {
		h.games.Leave(context.Background(), userID, gameID)
	}
}

func (h *WSHandler) claim(ctx context.Context, userID string) (domain.GameSnapshot, error) {
	if _, err := h.games.Claim(ctx, userID); err != nil {
		return domain.GameSnapshot{}, err
	}
	return h.games.Snapshot(ctx, userID)
}

// eventFeed forwards the events of the game a connection currently follows.
// Starting a new game switches the feed to it.
type eventFeed struct {
	push   func(outboundMessage[any]) bool
	gameID string
	cancel func()
	done   chan struct{}
}

func (f *eventFeed) follow(gameID string, events <-chan domain.Event, cancel func()) {
	f.stop()
	done := make(chan struct{})
	f.gameID, f.cancel, f.done = gameID, cancel, done
	go func() {
		defer close(done)
		for event := range events {
			if !f.push(outboundMessage[any]{Type: event.Type, Payload: event.Payload}) {
				return
			}
		}
	}()
}

func (f *eventFeed) stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
	f.cancel = nil
	f.done = nil
}
