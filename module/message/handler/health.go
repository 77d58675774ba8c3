package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"PingUp/service/chat"
)

// Check reports one dependency; a false result turns /healthz into a 503.
type Check func() (name string, healthy bool)

func Health(reg *chat.Registry, checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, channels := reg.Stats()
		body := gin.H{"success": true, "users": users, "channels": channels}
		status := http.StatusOK
		for _, check := range checks {
			name, healthy := check()
			body[name] = healthy
			if !healthy {
				body["success"] = false
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, body)
	}
}
