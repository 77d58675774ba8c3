package model

import (
	"time"

	usermodel "PingUp/module/user/model"
)

// RecentEntry 收件箱条目：最近一条消息，收发双方展开为用户摘要。
type RecentEntry struct {
	ID          string            `json:"_id"`
	From        usermodel.Summary `json:"from_user_id"`
	To          usermodel.Summary `json:"to_user_id"`
	Text        string            `json:"text,omitempty"`
	MessageType string            `json:"message_type"`
	MediaURL    string            `json:"media_url,omitempty"`
	Seen        bool              `json:"seen"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func NewRecentEntry(m *Message, from, to usermodel.Summary) RecentEntry {
	return RecentEntry{
		ID:          m.ID,
		From:        from,
		To:          to,
		Text:        m.Text,
		MessageType: m.MessageType,
		MediaURL:    m.MediaURL,
		Seen:        m.Seen,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
