package handler

import (
	"github.com/gin-gonic/gin"

	"PingUp/middleware"
)

// Register mounts every message route on r.
func Register(r *gin.Engine, rt *middleware.Router, msg *MessageHandler, stream *StreamHandler, health gin.HandlerFunc) {
	auth := middleware.RouteOpt{IsAuth: true}
	live := middleware.RouteOpt{IsAuth: true, Stream: true}

	api := r.Group("/api")
	m := api.Group("/message")
	rt.GET(m, "/sse/:userId", stream.SSE, live)
	rt.GET(m, "/ws/:userId", stream.WS, live)
	rt.POST(m, "/send", msg.Send, auth)
	rt.POST(m, "/get", msg.Get, auth)
	rt.POST(m, "/delete", msg.Delete, auth)
	rt.DELETE(m, "/:id", msg.DeleteByID, auth)

	u := api.Group("/user")
	rt.GET(u, "/recent-messages", msg.Recent, auth)

	rt.GET(r, "/healthz", health, middleware.RouteOpt{})
}
