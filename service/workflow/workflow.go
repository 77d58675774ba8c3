//go:generate go run go.uber.org/mock/mockgen -source=workflow.go -destination=../../mocks/mock_submitter.go -package=mocks
package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"PingUp/logger"
	"PingUp/tools/ids"
)

const EventUnseenDigest = "app/unseen-messages.digest"

// Event is a fire-and-forget trigger for the external workflow runtime.
type Event struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
	TS   int64          `json:"ts"` // unix ms
	// Key orders events of one entity onto the same partition; it is not sent.
	Key string `json:"-"`
}

func NewEvent(name, key string, data map[string]any) Event {
	return Event{
		ID:   ids.GenerateString(),
		Name: name,
		Data: data,
		TS:   time.Now().UnixMilli(),
		Key:  key,
	}
}

type Submitter interface {
	Submit(ctx context.Context, evt Event) error
}

// LogSubmitter only records events; used when WORKFLOW_DRIVER=none.
type LogSubmitter struct {
	log *zap.Logger
}

func NewLogSubmitter() *LogSubmitter {
	return &LogSubmitter{log: logger.Named("workflow")}
}

func (s *LogSubmitter) Submit(ctx context.Context, evt Event) error {
	s.log.Info("workflow event", zap.String("name", evt.Name), zap.String("id", evt.ID), zap.Any("data", evt.Data))
	return nil
}
