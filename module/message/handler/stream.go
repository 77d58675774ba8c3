package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"PingUp/logger"
	midsec "PingUp/middleware/security"
	"PingUp/service/chat"
	"PingUp/tools/errs"
)

// StreamHandler opens push channels and keeps them registered while they live.
type StreamHandler struct {
	reg      *chat.Registry
	opts     chat.StreamOptions
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewStreamHandler only accepts WebSocket upgrades from frontendURL when it is set.
func NewStreamHandler(reg *chat.Registry, opts chat.StreamOptions, frontendURL string) *StreamHandler {
	return &StreamHandler{
		reg:  reg,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return frontendURL == "" || origin == "" || origin == frontendURL
			},
		},
		log: logger.Named("stream"),
	}
}

// authorize requires the authenticated user to be the one in the path.
func (h *StreamHandler) authorize(c *gin.Context) (string, bool) {
	uid := c.Param("userId")
	if uid == "" {
		fail(c, errs.ErrArgs.WrapMsg("userId is required"))
		return "", false
	}
	if uid != midsec.UserID(c) {
		fail(c, errs.ErrTokenMismatch)
		return "", false
	}
	return uid, true
}

// SSE handles GET /api/message/sse/:userId.
func (h *StreamHandler) SSE(c *gin.Context) {
	uid, okay := h.authorize(c)
	if !okay {
		return
	}
	t, err := chat.NewSSETransport(c.Writer)
	if err != nil {
		fail(c, errs.ErrInternalServer.WrapMsg("streaming unsupported"))
		return
	}
	h.serve(c.Request.Context(), uid, t, "sse")
}

// WS handles GET /api/message/ws/:userId.
func (h *StreamHandler) WS(c *gin.Context) {
	uid, okay := h.authorize(c)
	if !okay {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Debug("upgrade failed", zap.String("user", uid), zap.Error(err))
		return
	}
	t := chat.NewWSTransport(conn, h.opts.Heartbeat)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go t.ReadPump(ctx, cancel)

	h.serve(ctx, uid, t, "ws")
}

// serve queues CONNECTED before registering so it is always the first frame.
func (h *StreamHandler) serve(ctx context.Context, uid string, t chat.Transport, kind string) {
	st := chat.NewStream(uid, t, h.opts)
	hello, err := chat.ConnectedEvent(uid, st.ID()).Encode()
	if err == nil {
		st.Write(hello)
	}

	h.reg.Register(uid, st)
	users, channels := h.reg.Stats()
	h.log.Info("channel opened",
		zap.String("user", uid), zap.String("channel", st.ID()), zap.String("kind", kind),
		zap.Int("users", users), zap.Int("channels", channels))

	defer func() {
		h.reg.Unregister(uid, st)
		users, channels := h.reg.Stats()
		h.log.Info("channel closed",
			zap.String("user", uid), zap.String("channel", st.ID()),
			zap.Int("users", users), zap.Int("channels", channels))
	}()

	if err := st.Serve(ctx); err != nil {
		h.log.Debug("channel ended", zap.String("channel", st.ID()), zap.Error(err))
	}
}
