package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "PingUp/middleware/security"
)

// 配置选项
type RouteOpt struct {
	IsAuth bool
	// Stream 允许 ?token= 认证
	Stream bool
}

// Router 按 RouteOpt 给路由挂认证中间件
type Router struct {
	auth   gin.HandlerFunc
	stream gin.HandlerFunc
}

func NewRouter(v midsec.TokenVerifier) *Router {
	return &Router{
		auth:   midsec.Middleware(v, midsec.DefaultOptions()),
		stream: midsec.Middleware(v, midsec.StreamOptions()),
	}
}

func (rt *Router) chain(handler gin.HandlerFunc, opt RouteOpt) []gin.HandlerFunc {
	switch {
	case opt.Stream:
		return []gin.HandlerFunc{rt.stream, handler}
	case opt.IsAuth:
		return []gin.HandlerFunc{rt.auth, handler}
	default:
		return []gin.HandlerFunc{handler}
	}
}

// 封装 POST
func (rt *Router) POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.POST(path, rt.chain(handler, opt)...)
}

// 封装 GET
func (rt *Router) GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.GET(path, rt.chain(handler, opt)...)
}

func (rt *Router) DELETE(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.DELETE(path, rt.chain(handler, opt)...)
}
