package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/angelmondragon/estatehub-backend/api/responses"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

type socketServer interface {
	Serve(ctx context.Context, ws *websocket.Conn, userID uuid.UUID)
}

// RealtimeSocket upgrades an authenticated request and hands the connection
// to the relay. It returns when the socket closes.
func RealtimeSocket(relay socketServer, upgrader *websocket.Upgrader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already answered the client.
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "realtime.upgrade_failed")
			}
			return
		}
		relay.Serve(r.Context(), ws, userID)
	}
}
