package models

import (
	"time"
)

type MessageFormat string

const (
	FormatText  MessageFormat = "text"
	FormatImage MessageFormat = "image"
)

// Message is a single chat message. CreationTime is assigned by the server and
// is the only ordering key, never derived from CreatedAt.
type Message struct {
	ID           ObjectID      `bson:"_id,omitempty" json:"id"`
	ChannelID    ObjectID      `bson:"channel_id" json:"channel_id"`
	AuthorID     ObjectID      `bson:"author_id" json:"author_id"`
	Body         string        `bson:"body" json:"body"`
	Format       MessageFormat `bson:"format" json:"format"`
	CreationTime int64         `bson:"creation_time" json:"creation_time"`
	Edited       bool          `bson:"edited" json:"edited"`
	ReplyToID    *ObjectID     `bson:"reply_to_id,omitempty" json:"reply_to_id,omitempty"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}

func (Message) CollectionName() string {
	return "messages"
}

func (m Message) GetObjectID() ObjectID {
	return m.ID
}

// GetUpdates only exposes the fields an edit may touch.
func (m Message) GetUpdates() any {
	return map[string]any{
		"body":       m.Body,
		"edited":     m.Edited,
		"updated_at": time.Now(),
	}
}

// MessageContext is a window of messages around a target message.
type MessageContext struct {
	Messages    []Message `json:"messages"`
	TargetIndex int       `json:"target_message_index"`
}

// LiveRange is the creation time span a live batch is authoritative for.
// To == 0 means the range is open towards newer messages.
type LiveRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to,omitempty"`
}

func (r LiveRange) Contains(creationTime int64) bool {
	if creationTime < r.From {
		return false
	}
	return r.To == 0 || creationTime <= r.To
}

// LiveBatch is the full current content of a channel's live window.
type LiveBatch struct {
	ChannelID ObjectID  `json:"channel_id"`
	Messages  []Message `json:"messages"`
	Range     LiveRange `json:"range"`
}
