package client

import (
	"sort"
	"sync"

	"PingUp/module/message/model"
	"PingUp/service/chat"
)

// Conversation is the local view of one thread between Self and Other,
// kept ordered by (createdAt, _id). Apply is idempotent.
type Conversation struct {
	Self, Other string

	mu   sync.RWMutex
	msgs []*model.Message
}

func NewConversation(self, other string) *Conversation {
	return &Conversation{Self: self, Other: other}
}

// belongs reports whether m is part of this thread.
func (c *Conversation) belongs(m *model.Message) bool {
	return (m.FromUserID == c.Self && m.ToUserID == c.Other) ||
		(m.FromUserID == c.Other && m.ToUserID == c.Self)
}

// Apply folds one pushed event into the view and reports whether it changed.
func (c *Conversation) Apply(evt chat.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch evt.Type {
	case chat.EventNewMessage:
		if evt.Message == nil || !c.belongs(evt.Message) || c.index(evt.Message.ID) >= 0 {
			return false
		}
		c.msgs = append(c.msgs, evt.Message.Clone())
		sort.SliceStable(c.msgs, func(i, j int) bool { return model.Less(c.msgs[i], c.msgs[j]) })
		return true

	case chat.EventSeen:
		// the reader is the other side; only our outgoing messages flip
		if evt.FromUserID != c.Other {
			return false
		}
		changed := false
		for _, id := range evt.MessageIDs {
			if i := c.index(id); i >= 0 && c.msgs[i].FromUserID == c.Self && !c.msgs[i].Seen {
				c.msgs[i].Seen = true
				changed = true
			}
		}
		return changed

	case chat.EventDelete:
		i := c.index(evt.MessageID)
		if i < 0 {
			return false
		}
		c.msgs = append(c.msgs[:i], c.msgs[i+1:]...)
		return true
	}
	return false
}

// Replace swaps the view for a fetched history.
func (c *Conversation) Replace(list []*model.Message) {
	out := make([]*model.Message, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, m := range list {
		if _, dup := seen[m.ID]; dup || !c.belongs(m) {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return model.Less(out[i], out[j]) })

	c.mu.Lock()
	c.msgs = out
	c.mu.Unlock()
}

// Messages returns a copy of the ordered view.
func (c *Conversation) Messages() []*model.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*model.Message, len(c.msgs))
	for i, m := range c.msgs {
		out[i] = m.Clone()
	}
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.msgs)
}

func (c *Conversation) index(id string) int {
	for i, m := range c.msgs {
		if m.ID == id {
			return i
		}
	}
	return -1
}
