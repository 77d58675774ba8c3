package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"PingUp/tools/security"
)

func init() { gin.SetMode(gin.TestMode) }

func TestOrigin(t *testing.T) {
	r := gin.New()
	r.Use(Origin("http://app.local"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("should echo an allowed origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		rq := httptest.NewRequest(http.MethodGet, "/x", nil)
		rq.Header.Set("Origin", "http://app.local")
		r.ServeHTTP(w, rq)
		require.Equal(t, "http://app.local", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("should skip other origins", func(t *testing.T) {
		w := httptest.NewRecorder()
		rq := httptest.NewRequest(http.MethodGet, "/x", nil)
		rq.Header.Set("Origin", "http://evil.local")
		r.ServeHTTP(w, rq)
		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("should answer preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		rq := httptest.NewRequest(http.MethodOptions, "/x", nil)
		rq.Header.Set("Origin", "http://app.local")
		r.ServeHTTP(w, rq)
		require.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestManagerStopsOnAbort(t *testing.T) {
	var order []string
	m := NewManager(func(c *gin.Context) { order = append(order, "a") })
	m.Add(func(c *gin.Context) { order = append(order, "b"); c.AbortWithStatus(http.StatusTeapot) })
	m.Add(func(c *gin.Context) { order = append(order, "c") })

	r := gin.New()
	r.Use(m.Use())
	r.GET("/x", func(c *gin.Context) { order = append(order, "handler") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, []string{"a", "b"}, order)
}

func TestManagerRunsAddedInOrder(t *testing.T) {
	var order []string
	m := NewManager(func(c *gin.Context) { order = append(order, "log") })
	m.Add(Origin(""))
	m.Add(func(c *gin.Context) { order = append(order, "added") })

	r := gin.New()
	r.Use(m.Use())
	r.GET("/x", func(c *gin.Context) { order = append(order, "handler") })

	w := httptest.NewRecorder()
	rq := httptest.NewRequest(http.MethodGet, "/x", nil)
	rq.Header.Set("Origin", "http://any.local")
	r.ServeHTTP(w, rq)

	require.Equal(t, []string{"log", "added", "handler"}, order)
	require.Equal(t, "http://any.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter(t *testing.T) {
	opts := security.DefaultOptions([]byte("k"))
	tok, _, err := security.Generate(opts, "u1")
	require.NoError(t, err)

	rt := NewRouter(security.NewVerifier(opts))
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	rt.GET(r, "/open", ok, RouteOpt{})
	rt.POST(r, "/closed", ok, RouteOpt{IsAuth: true})
	rt.GET(r, "/stream", ok, RouteOpt{Stream: true})

	cases := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/open", http.StatusOK},
		{http.MethodPost, "/closed", http.StatusUnauthorized},
		{http.MethodPost, "/closed?token=" + tok, http.StatusUnauthorized},
		{http.MethodGet, "/stream?token=" + tok, http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.target, nil))
		require.Equal(t, tc.want, w.Code, tc.target)
	}
}
