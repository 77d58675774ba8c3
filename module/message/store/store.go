//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../../../mocks/mock_store.go -package=mocks
package store

import (
	"context"

	"PingUp/module/message/model"
)

// Store persists direct messages.
type Store interface {
	Create(ctx context.Context, msg *model.Message) error
	// Get returns errs.ErrRecordNotFound when id is unknown.
	Get(ctx context.Context, id string) (*model.Message, error)
	// Conversation returns both directions between userID and otherID ordered by
	// (createdAt, _id) ascending. limit > 0 keeps only the newest limit messages.
	Conversation(ctx context.Context, userID, otherID string, limit int64) ([]*model.Message, error)
	// MarkSeen flips unseen messages from senderID to readerID and returns the ids
	// this call flipped; concurrent callers never report the same id.
	MarkSeen(ctx context.Context, readerID, senderID string) ([]string, error)
	// Recent returns the newest message per counterpart, newest first.
	Recent(ctx context.Context, userID string) ([]*model.Message, error)
	Delete(ctx context.Context, id string) error
	UnseenByReceiver(ctx context.Context) ([]model.UnseenCount, error)
}
