package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"PingUp/tools/errs"
)

// CtxUserIDKey 认证通过后写入 gin.Context 的用户ID
const CtxUserIDKey = "userId"

// TokenVerifier returns the user id carried by a bearer token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Options struct {
	HeaderToken               string // 默认 "Authorization"
	EnableAuthorizationBearer bool   // 默认 true
	// AllowQueryToken 允许 ?token=，EventSource 与浏览器 WebSocket 无法设置请求头
	AllowQueryToken bool
	QueryKey        string // 默认 "token"
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "Authorization",
		EnableAuthorizationBearer: true,
		QueryKey:                  "token",
	}
}

// StreamOptions is DefaultOptions plus the query fallback.
func StreamOptions() *Options {
	o := DefaultOptions()
	o.AllowQueryToken = true
	return o
}

func ExtractToken(c *gin.Context, opts *Options) string {
	raw := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
	if raw != "" {
		// 兼容 Authorization: Bearer xxx
		if opts.EnableAuthorizationBearer && len(raw) > len("bearer ") && strings.EqualFold(raw[:len("bearer ")], "bearer ") {
			return strings.TrimSpace(raw[len("bearer "):])
		}
		return raw
	}
	if opts.AllowQueryToken {
		return strings.TrimSpace(c.Query(opts.QueryKey))
	}
	return ""
}

func Middleware(v TokenVerifier, opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := ExtractToken(c, opts)
		if token == "" {
			abort(c, errs.ErrTokenMissing)
			return
		}
		uid, err := v.Verify(token)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(CtxUserIDKey, uid)
		c.Next()
	}
}

// UserID 读取认证中间件写入的用户ID
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": errs.Message(err),
	})
}
