package chat

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-contrib/sse"

	"PingUp/tools/errs"
)

// heartbeatFrame is an SSE comment; EventSource ignores it but proxies see traffic.
const heartbeatFrame = ":\n\n"

type SSETransport struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSETransport writes the streaming headers and the 200 status.
func NewSSETransport(w http.ResponseWriter) (*SSETransport, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errs.ErrInternalServer.WrapMsg("response writer does not support streaming")
	}
	h := w.Header()
	h.Set("Content-Type", sse.ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &SSETransport{w: w, flusher: f}, nil
}

func (t *SSETransport) WriteEvent(payload []byte) error {
	if err := sse.Encode(t.w, sse.Event{Data: json.RawMessage(payload)}); err != nil {
		return err
	}
	t.flusher.Flush()
	return nil
}

func (t *SSETransport) WriteHeartbeat() error {
	if _, err := io.WriteString(t.w, heartbeatFrame); err != nil {
		return err
	}
	t.flusher.Flush()
	return nil
}

// Close is a no-op; the handler returning ends the response.
func (t *SSETransport) Close() error { return nil }
