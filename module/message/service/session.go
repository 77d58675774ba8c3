package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"PingUp/logger"
	"PingUp/module/message/model"
	"PingUp/module/message/store"
	usermodel "PingUp/module/user/model"
	userstore "PingUp/module/user/store"
	"PingUp/service/chat"
	"PingUp/service/media"
	"PingUp/tools/errs"
	"PingUp/tools/ids"
	"PingUp/tools/safe"
)

// Options wires the controller. Directory is optional: without it receivers
// are not checked and the inbox uses placeholder profiles.
type Options struct {
	Store        store.Store
	Directory    userstore.Directory
	Uploader     media.Uploader
	Publisher    chat.Publisher
	HistoryLimit int64
}

// Controller implements the direct message operations.
type Controller struct {
	store        store.Store
	users        userstore.Directory
	media        media.Uploader
	pub          chat.Publisher
	historyLimit int64

	newID    func() string
	validate *validator.Validate
	log      *zap.Logger
}

func NewController(opts Options) *Controller {
	safe.MustNotNil(opts.Store, "store")
	safe.MustNotNil(opts.Publisher, "publisher")
	return &Controller{
		store:        opts.Store,
		users:        opts.Directory,
		media:        opts.Uploader,
		pub:          opts.Publisher,
		historyLimit: opts.HistoryLimit,
		newID:        ids.GenerateString,
		validate:     validator.New(),
		log:          logger.Named("message"),
	}
}

type SendInput struct {
	SenderID   string `validate:"required"`
	ReceiverID string `validate:"required"`
	Text       string
	File       *media.File
}

func (in SendInput) hasFile() bool { return in.File != nil && len(in.File.Data) > 0 }

func (c *Controller) SendMessage(ctx context.Context, in SendInput) (*model.Message, error) {
	if err := c.validate.Struct(in); err != nil {
		return nil, errs.ErrArgs.WrapMsg(err.Error())
	}
	if strings.TrimSpace(in.Text) == "" && !in.hasFile() {
		return nil, errs.ErrArgs.WrapMsg("text or file is required")
	}

	if c.users != nil {
		ok, err := c.users.Exists(ctx, in.ReceiverID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.ErrRecordNotFound.WrapMsg("receiver not found", "user", in.ReceiverID)
		}
	}

	now := model.Now()
	m := &model.Message{
		ID:          c.newID(),
		FromUserID:  in.SenderID,
		ToUserID:    in.ReceiverID,
		Text:        in.Text,
		MessageType: model.TypeText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if in.hasFile() {
		if _, err := media.DetectImage(in.File.Data); err != nil {
			return nil, err
		}
		if c.media == nil {
			return nil, errs.ErrUpstream.WrapMsg("media uploads are not configured")
		}
		asset, err := c.media.Upload(ctx, *in.File)
		if err != nil {
			if _, coded := errs.Code(err); coded {
				return nil, err
			}
			return nil, errs.ErrUpstream.WrapMsg("media upload failed", "err", err)
		}
		m.MessageType = model.TypeImage
		m.MediaURL = asset.URL
	}

	if err := c.store.Create(ctx, m); err != nil {
		return nil, err
	}

	evt := chat.NewMessageEvent(m)
	c.pub.Publish(ctx, in.ReceiverID, evt)
	if in.SenderID != in.ReceiverID {
		c.pub.Publish(ctx, in.SenderID, evt)
	}
	c.log.Debug("message sent", zap.String("id", m.ID), zap.String("from", m.FromUserID), zap.String("to", m.ToUserID), zap.String("type", m.MessageType))
	return m, nil
}

// GetConversation returns the history between userID and otherUserID after
// marking otherUserID's messages to userID as seen.
func (c *Controller) GetConversation(ctx context.Context, userID, otherUserID string) ([]*model.Message, error) {
	if userID == "" || otherUserID == "" {
		return nil, errs.ErrArgs.WrapMsg("to_user_id is required")
	}

	seen, err := c.store.MarkSeen(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	list, err := c.store.Conversation(ctx, userID, otherUserID, c.historyLimit)
	if err != nil {
		return nil, err
	}
	if len(seen) > 0 {
		c.pub.Publish(ctx, otherUserID, chat.SeenEvent(userID, seen))
	}
	return list, nil
}

func (c *Controller) RecentConversations(ctx context.Context, userID string) ([]*model.Message, error) {
	if userID == "" {
		return nil, errs.ErrArgs.WrapMsg("user id is required")
	}
	return c.store.Recent(ctx, userID)
}

// Inbox is RecentConversations with both parties expanded to profile summaries.
func (c *Controller) Inbox(ctx context.Context, userID string) ([]model.RecentEntry, error) {
	recent, err := c.RecentConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	userIDs := lo.Uniq(lo.FlatMap(recent, func(m *model.Message, _ int) []string {
		return []string{m.FromUserID, m.ToUserID}
	}))
	summaries := map[string]usermodel.Summary{}
	if c.users != nil && len(userIDs) > 0 {
		if summaries, err = c.users.Summaries(ctx, userIDs); err != nil {
			return nil, err
		}
	}
	lookup := func(id string) usermodel.Summary {
		if s, ok := summaries[id]; ok {
			return s
		}
		return usermodel.Fallback(id)
	}

	return lo.Map(recent, func(m *model.Message, _ int) model.RecentEntry {
		return model.NewRecentEntry(m, lookup(m.FromUserID), lookup(m.ToUserID))
	}), nil
}

// DeleteMessage removes a message; only its sender may do so.
func (c *Controller) DeleteMessage(ctx context.Context, requesterID, messageID string) error {
	if requesterID == "" || messageID == "" {
		return errs.ErrArgs.WrapMsg("message_id is required")
	}
	m, err := c.store.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if m.FromUserID != requesterID {
		return errs.ErrNoPermission.WrapMsg("only the sender can delete a message", "message_id", messageID)
	}
	if err := c.store.Delete(ctx, messageID); err != nil {
		return err
	}

	evt := chat.DeleteEvent(m.ID, m.FromUserID)
	c.pub.Publish(ctx, m.ToUserID, evt)
	if m.ToUserID != m.FromUserID {
		c.pub.Publish(ctx, m.FromUserID, evt)
	}
	return nil
}
