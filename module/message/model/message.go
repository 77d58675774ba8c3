package model

import "time"

const (
	MessageTableName = "messages"

	TypeText  = "text"
	TypeImage = "image"
)

// Message 一条私信。创建后只有 seen 会变化（false -> true，仅由接收方读取触发）。
// JSON 字段名与 Web 客户端保持一致（_id / createdAt）。
type Message struct {
	ID          string    `bson:"_id" json:"_id"`                                      // 雪花ID（字符串，按时间有序）
	FromUserID  string    `bson:"from_user_id" json:"from_user_id"`                    // 发送者
	ToUserID    string    `bson:"to_user_id" json:"to_user_id"`                        // 接收者
	Text        string    `bson:"text,omitempty" json:"text,omitempty"`                // 文本（可空）
	MessageType string    `bson:"message_type" json:"message_type"`                    // text / image
	MediaURL    string    `bson:"media_url,omitempty" json:"media_url,omitempty"`      // 图片地址（可空）
	Seen        bool      `bson:"seen" json:"seen"`                                    // 接收方是否已读
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`                          // 毫秒精度
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (Message) TableName() string { return MessageTableName }

// Counterpart returns the other participant from userID's point of view.
func (m *Message) Counterpart(userID string) string {
	if m.FromUserID == userID {
		return m.ToUserID
	}
	return m.FromUserID
}

// Less orders by (createdAt, _id) ascending, a total order over messages.
func Less(a, b *Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Clone 返回浅拷贝（字段均为值类型）。
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}

// Now 截断到毫秒，保证内存与 Mongo 中的排序一致。
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// UnseenCount 每个接收者的未读数量（摘要任务使用）。
type UnseenCount struct {
	ToUserID string `bson:"_id" json:"to_user_id"`
	Count    int64  `bson:"count" json:"count"`
}
