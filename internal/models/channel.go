package models

import (
	"time"
)

type ChannelType string

const (
	ChannelTypePublic  ChannelType = "public"
	ChannelTypePrivate ChannelType = "private"
	ChannelTypeDM      ChannelType = "dm"
)

type Channel struct {
	ID            ObjectID    `bson:"_id,omitempty" json:"id"`
	Name          string      `bson:"name,omitempty" json:"name"`
	Topic         string      `bson:"topic,omitempty" json:"topic,omitempty"`
	Type          ChannelType `bson:"type,omitempty" json:"type"`
	CreatedBy     ObjectID    `bson:"created_by,omitempty" json:"created_by"`
	DMKey         string      `bson:"dm_key,omitempty" json:"-"` // sorted member pair, DMs only
	LastMessageAt *time.Time  `bson:"last_message_at,omitempty" json:"last_message_at,omitempty"`
	CreatedAt     time.Time   `bson:"created_at,omitempty" json:"created_at"`
	UpdatedAt     time.Time   `bson:"updated_at,omitempty" json:"updated_at"`
}

func (Channel) CollectionName() string {
	return "channels"
}

func (c Channel) GetObjectID() ObjectID {
	return c.ID
}

func (c Channel) GetUpdates() any {
	// all fields are omitempty, so zeroing the immutable ones keeps them out of $set
	c.ID = ""
	c.Type = ""
	c.DMKey = ""
	c.CreatedBy = ""
	c.CreatedAt = time.Time{}
	c.UpdatedAt = time.Now()
	return c
}

// Restricted reports whether reading the channel requires membership.
func (c Channel) Restricted() bool {
	return c.Type == ChannelTypePrivate || c.Type == ChannelTypeDM
}

type ChannelMember struct {
	ID        ObjectID  `bson:"_id,omitempty" json:"id"`
	ChannelID ObjectID  `bson:"channel_id" json:"channel_id"`
	UserID    ObjectID  `bson:"user_id" json:"user_id"`
	Role      string    `bson:"role" json:"role"` // "owner" or "member"
	JoinedAt  time.Time `bson:"joined_at" json:"joined_at"`
}

func (ChannelMember) CollectionName() string {
	return "channel_members"
}

func (m ChannelMember) GetObjectID() ObjectID {
	return m.ID
}

func (m ChannelMember) GetUpdates() any {
	return map[string]any{"role": m.Role}
}
