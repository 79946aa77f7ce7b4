package models

import (
	"time"
)

type Reaction struct {
	ID        ObjectID  `bson:"_id,omitempty" json:"id"`
	MessageID ObjectID  `bson:"message_id" json:"message_id"`
	ChannelID ObjectID  `bson:"channel_id" json:"channel_id"`
	UserID    ObjectID  `bson:"user_id" json:"user_id"`
	Emoji     string    `bson:"emoji" json:"emoji"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (Reaction) CollectionName() string {
	return "reactions"
}

func (r Reaction) GetObjectID() ObjectID {
	return r.ID
}

func (r Reaction) GetUpdates() any {
	return map[string]any{"emoji": r.Emoji}
}

// ReactionCount groups reactions on a message by emoji.
type ReactionCount struct {
	Emoji   string     `bson:"_id" json:"emoji"`
	Count   int        `bson:"count" json:"count"`
	UserIDs []ObjectID `bson:"user_ids" json:"user_ids"`
}

type ReadReceipt struct {
	ID        ObjectID  `bson:"_id,omitempty" json:"id"`
	MessageID ObjectID  `bson:"message_id" json:"message_id"`
	ChannelID ObjectID  `bson:"channel_id" json:"channel_id"`
	UserID    ObjectID  `bson:"user_id" json:"user_id"`
	ReadAt    time.Time `bson:"read_at" json:"read_at"`
}

func (ReadReceipt) CollectionName() string {
	return "read_receipts"
}

func (r ReadReceipt) GetObjectID() ObjectID {
	return r.ID
}

func (r ReadReceipt) GetUpdates() any {
	return map[string]any{"read_at": r.ReadAt}
}

// Bulletin is an announcement pinned to a channel.
type Bulletin struct {
	ID        ObjectID  `bson:"_id,omitempty" json:"id"`
	ChannelID ObjectID  `bson:"channel_id" json:"channel_id"`
	AuthorID  ObjectID  `bson:"author_id" json:"author_id"`
	Title     string    `bson:"title" json:"title"`
	Body      string    `bson:"body" json:"body"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (Bulletin) CollectionName() string {
	return "bulletins"
}

func (b Bulletin) GetObjectID() ObjectID {
	return b.ID
}

func (b Bulletin) GetUpdates() any {
	return map[string]any{"title": b.Title, "body": b.Body}
}
