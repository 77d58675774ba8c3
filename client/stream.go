// Package client consumes the push channel and keeps a local conversation view.
package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"PingUp/logger"
	"PingUp/service/chat"
	"PingUp/tools/decode"
	"PingUp/tools/errs"
)

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
	maxFrameBytes     = 1 << 20
)

type StreamConfig struct {
	BaseURL string // e.g. http://localhost:4000
	UserID  string
	Token   string

	HTTPClient *http.Client
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Stream reads events from /api/message/sse/:userId and reconnects until its
// context ends.
type Stream struct {
	cfg StreamConfig
	rnd *rand.Rand
	log *zap.Logger
}

func NewStream(cfg StreamConfig) *Stream {
	if cfg.HTTPClient == nil {
		// no overall timeout: the response body lives as long as the channel
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = defaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	return &Stream{
		cfg: cfg,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: logger.Named("client"),
	}
}

func (s *Stream) endpoint() (string, error) {
	u, err := url.Parse(strings.TrimRight(s.cfg.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errs.ErrArgs.WrapMsg("invalid base url", "url", s.cfg.BaseURL)
	}
	return u.JoinPath("api", "message", "sse", s.cfg.UserID).String(), nil
}

// Run connects and forwards each decoded event to handle. It returns ctx's
// error once ctx ends, or immediately on an auth failure, which retrying
// cannot fix.
func (s *Stream) Run(ctx context.Context, handle func(chat.Event)) error {
	endpoint, err := s.endpoint()
	if err != nil {
		return err
	}

	attempt := 0
	for {
		connected, err := s.once(ctx, endpoint, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isAuthErr(err) {
			return err
		}
		if connected {
			attempt = 0
		}
		wait := s.backoff(attempt)
		attempt++
		s.log.Warn("stream disconnected, retrying", zap.Error(err), zap.Duration("wait", wait))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// once runs one connection; connected reports whether the 200 was received.
func (s *Stream) once(ctx context.Context, endpoint string, handle func(chat.Event)) (connected bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, errs.Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return false, errs.WrapMsg(err, "connect stream")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return false, errs.ErrTokenInvalid.WrapMsg("stream rejected", "status", resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden:
		return false, errs.ErrTokenMismatch.WrapMsg("stream rejected", "status", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, errs.ErrUpstream.WrapMsg("unexpected status", "status", resp.StatusCode)
	}

	return true, ReadEvents(resp.Body, func(data []byte) {
		// DecodeJSON also accepts populated user objects in from_user_id/to_user_id
		evt, err := decode.DecodeJSON[chat.Event](data)
		if err != nil {
			s.log.Debug("skip undecodable frame", zap.Error(err))
			return
		}
		handle(*evt)
	})
}

func isAuthErr(err error) bool {
	return errors.Is(err, errs.ErrTokenInvalid) || errors.Is(err, errs.ErrTokenMismatch)
}

// backoff doubles from MinBackoff up to MaxBackoff with up to 50% jitter.
func (s *Stream) backoff(attempt int) time.Duration {
	d := s.cfg.MinBackoff
	for i := 0; i < attempt && d < s.cfg.MaxBackoff; i++ {
		d *= 2
	}
	if d > s.cfg.MaxBackoff {
		d = s.cfg.MaxBackoff
	}
	return d/2 + time.Duration(s.rnd.Int63n(int64(d/2)+1))
}

// ReadEvents splits an SSE body into data payloads. Comment and blank lines
// are skipped and multi-line data fields are joined with '\n'.
func ReadEvents(r io.Reader, handle func(data []byte)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxFrameBytes)

	var data []string
	flush := func() {
		if len(data) > 0 {
			handle([]byte(strings.Join(data, "\n")))
			data = data[:0]
		}
	}
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// event:, id:, retry: carry nothing the client needs
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return errs.Wrap(err)
	}
	return errs.New("stream closed by server")
}
