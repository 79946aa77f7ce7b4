package models

type MessageEventType string

const (
	MessageCreated  MessageEventType = "message_created"
	MessageUpdated  MessageEventType = "message_updated"
	MessageDeleted  MessageEventType = "message_deleted"
	ReactionChanged MessageEventType = "reaction_changed"
)

// MessageEvent announces that a channel's live window may have changed.
type MessageEvent struct {
	Type      MessageEventType `json:"type"`
	ChannelID ObjectID         `json:"channel_id"`
	MessageID ObjectID         `json:"message_id"`
	UserID    ObjectID         `json:"user_id,omitempty"`
	At        int64            `json:"at"`
}
