package chat

import (
	"encoding/json"

	"PingUp/module/message/model"
)

type EventType string

const (
	EventConnected  EventType = "CONNECTED"
	EventNewMessage EventType = "NEW_MESSAGE"
	EventSeen       EventType = "SEEN"
	EventDelete     EventType = "DELETE"
)

// Event is the JSON envelope pushed to every channel. Fields not used by a
// given Type are omitted.
type Event struct {
	Type       EventType      `json:"type"`
	Message    *model.Message `json:"message,omitempty"`
	FromUserID string         `json:"from_user_id,omitempty"`
	MessageIDs []string       `json:"message_ids,omitempty"`
	MessageID  string         `json:"message_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	ChannelID  string         `json:"channel_id,omitempty"`
}

func ConnectedEvent(userID, channelID string) Event {
	return Event{Type: EventConnected, UserID: userID, ChannelID: channelID}
}

func NewMessageEvent(m *model.Message) Event {
	return Event{Type: EventNewMessage, Message: m}
}

// SeenEvent tells the sender that readerID has read ids.
func SeenEvent(readerID string, ids []string) Event {
	return Event{Type: EventSeen, FromUserID: readerID, MessageIDs: ids}
}

func DeleteEvent(messageID, fromUserID string) Event {
	return Event{Type: EventDelete, MessageID: messageID, FromUserID: fromUserID}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
