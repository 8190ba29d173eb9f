package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog"
)

// Authenticator resolves a bearer token to a user id, with the same checks
// as the HTTP API.
type Authenticator interface {
	AuthenticateSocket(ctx context.Context, token string) (string, error)
}

// RoomAuthorizer decides whether a user may join a space room.
type RoomAuthorizer interface {
	CanJoinSpaceRoom(ctx context.Context, userID, spaceID string) (bool, error)
}

type Handler struct {
	hub    *Hub
	auth   Authenticator
	rooms  RoomAuthorizer
	base   context.Context
	log    zerolog.Logger
	checks time.Duration
}

// NewHandler serves the WebSocket endpoint. base bounds the lifetime of
// room-authorization lookups made after the upgrade.
func NewHandler(base context.Context, hub *Hub, auth Authenticator, rooms RoomAuthorizer, log zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		auth:   auth,
		rooms:  rooms,
		base:   base,
		log:    log.With().Str("component", "realtime").Logger(),
		checks: 5 * time.Second,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := socketToken(r)
	if token == "" {
		writeUnauthorized(w, "missing access token")
		return
	}
	userID, err := h.auth.AuthenticateSocket(r.Context(), token)
	if err != nil || userID == "" {
		writeUnauthorized(w, "invalid access token")
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	client := newClient(userID, conn)
	h.hub.join(client, UserRoom(userID))
	h.log.Debug().Str("user_id", userID).Msg("socket connected")

	go client.writeLoop()
	go h.readLoop(client)
}

type spaceFrame struct {
	SpaceID string `json:"spaceId"`
}

func (h *Handler) readLoop(c *Client) {
	defer func() {
		h.hub.remove(c)
		c.Close()
		h.log.Debug().Str("user_id", c.userID).Msg("socket disconnected")
	}()

	for {
		msg, op, err := wsutil.ReadClientData(c.conn)
		if err != nil {
			return
		}
		if op != ws.OpText {
			continue
		}

		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(msg, &frame); err != nil {
			continue
		}

		switch frame.Event {
		case "joinSpace":
			var data spaceFrame
			if err := json.Unmarshal(frame.Data, &data); err != nil || strings.TrimSpace(data.SpaceID) == "" {
				h.reply(c, "error", map[string]string{"message": "spaceId required"})
				continue
			}
			h.joinSpace(c, strings.TrimSpace(data.SpaceID))
		case "leaveSpace":
			var data spaceFrame
			if err := json.Unmarshal(frame.Data, &data); err != nil || strings.TrimSpace(data.SpaceID) == "" {
				continue
			}
			spaceID := strings.TrimSpace(data.SpaceID)
			h.hub.leave(c, SpaceRoom(spaceID))
			h.hub.Emit(h.base, SpaceRoom(spaceID), "space:userLeft", map[string]string{"spaceId": spaceID, "userId": c.userID})
		}
	}
}

func (h *Handler) joinSpace(c *Client, spaceID string) {
	ctx, cancel := context.WithTimeout(h.base, h.checks)
	defer cancel()

	allowed, err := h.rooms.CanJoinSpaceRoom(ctx, c.userID, spaceID)
	if err != nil {
		h.log.Error().Err(err).Str("space_id", spaceID).Str("user_id", c.userID).Msg("authorize space room")
	}
	if !allowed {
		h.reply(c, "error", map[string]string{"message": "not allowed to join space", "spaceId": spaceID})
		return
	}

	h.hub.join(c, SpaceRoom(spaceID))
	h.hub.Emit(ctx, SpaceRoom(spaceID), "space:userJoined", map[string]string{"spaceId": spaceID, "userId": c.userID})
}

func (h *Handler) reply(c *Client, event string, data any) {
	payload, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return
	}
	if !c.enqueue(payload) {
		c.Close()
	}
}

func socketToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    "UNAUTHORIZED",
		"error":   message,
		"details": nil,
	})
}
