package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/metrics"
)

type RelayParams struct {
	Registry *Registry
	Config   config.RealtimeConfig
	Metrics  *metrics.RelayMetrics
	Logger   *logger.Logger
}

// Relay forwards events between registered connections.
type Relay struct {
	registry     *Registry
	sendBuffer   int
	writeTimeout time.Duration
	pongTimeout  time.Duration
	metrics      *metrics.RelayMetrics
	logg         *logger.Logger
}

func NewRelay(params RelayParams) (*Relay, error) {
	if params.Registry == nil {
		return nil, errors.New("realtime registry is required")
	}
	writeTimeout := params.Config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	pongTimeout := params.Config.PongTimeout
	if pongTimeout <= 0 {
		pongTimeout = time.Minute
	}
	return &Relay{
		registry:     params.Registry,
		sendBuffer:   params.Config.SendBuffer,
		writeTimeout: writeTimeout,
		pongTimeout:  pongTimeout,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// NewUpgrader accepts same-origin requests, clients without an Origin header
// and the listed origins. "*" accepts everything.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(origin), "/")] = struct{}{}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowed["*"]; ok {
				return true
			}
			if _, ok := allowed[strings.TrimRight(origin, "/")]; ok {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

// Serve runs the connection of an authenticated user until it closes.
func (r *Relay) Serve(ctx context.Context, ws *websocket.Conn, userID uuid.UUID) {
	c := newClient(ws, userID, r.sendBuffer)
	if r.logg != nil {
		ctx = r.logg.WithConnID(r.logg.WithUserID(ctx, userID.String()), c.id)
	}

	r.registry.Register(userID, c)
	r.metrics.ConnOpened()
	r.info(ctx, "realtime.connected")

	go c.writePump(r.writeTimeout, r.pongTimeout*9/10)

	defer func() {
		r.registry.Unregister(c)
		c.close()
		r.metrics.ConnClosed()
		r.info(ctx, "realtime.disconnected")
	}()

	ws.SetReadLimit(maxFrameBytes)
	_ = ws.SetReadDeadline(time.Now().Add(r.pongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(r.pongTimeout))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && r.logg != nil {
				r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "realtime.read_failed")
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			r.debug(ctx, "realtime.bad_frame")
			continue
		}
		r.handle(ctx, c, frame)
	}
}

func (r *Relay) handle(ctx context.Context, c *client, frame Frame) {
	switch frame.Event {
	case EventUserConnected:
		var claimed string
		if err := json.Unmarshal(frame.Data, &claimed); err != nil || claimed != c.userID.String() {
			r.debug(ctx, "realtime.user_connected_mismatch")
			return
		}
		r.registry.Register(c.userID, c)
	case EventSendMessage:
		var payload sendMessagePayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.ReceiverID == uuid.Nil {
			r.debug(ctx, "realtime.bad_send_message")
			return
		}
		r.emit(payload.ReceiverID, EventReceiveMessage, payload.Message)
	case EventTyping:
		var payload typingPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.ReceiverID == uuid.Nil {
			r.debug(ctx, "realtime.bad_typing")
			return
		}
		r.emit(payload.ReceiverID, EventUserTyping, TypingNotice{SenderID: c.userID, IsTyping: payload.IsTyping})
	default:
		r.debug(r.withEvent(ctx, frame.Event), "realtime.unknown_event")
	}
}

// Notify pushes a message persisted through the REST API to its receiver.
func (r *Relay) Notify(receiverID uuid.UUID, message any) bool {
	return r.emit(receiverID, EventReceiveMessage, message)
}

func (r *Relay) emit(receiverID uuid.UUID, event string, data any) bool {
	conn, ok := r.registry.Lookup(receiverID)
	if !ok {
		r.metrics.Event(event, metrics.RelayOutcomeOffline)
		return false
	}
	frame, err := encodeFrame(event, data)
	if err != nil {
		r.metrics.Event(event, metrics.RelayOutcomeDropped)
		return false
	}
	if !conn.Send(frame) {
		r.metrics.Event(event, metrics.RelayOutcomeDropped)
		return false
	}
	r.metrics.Event(event, metrics.RelayOutcomeDelivered)
	return true
}

func (r *Relay) info(ctx context.Context, msg string) {
	if r.logg != nil {
		r.logg.Info(ctx, msg)
	}
}

func (r *Relay) debug(ctx context.Context, msg string) {
	if r.logg != nil {
		r.logg.Debug(ctx, msg)
	}
}

func (r *Relay) withEvent(ctx context.Context, event string) context.Context {
	if r.logg == nil {
		return ctx
	}
	return r.logg.WithField(ctx, "event", event)
}
