package server

import (
	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

// Identity and path fields carry json:"-" so a request body cannot
// overwrite them.

type userRequest struct {
	UserID models.ObjectID `json:"-" jwt:"sub" validate:"required"`
}

type channelRequest struct {
	UserID    models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	ChannelID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
}

type channelLimitRequest struct {
	UserID    models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	ChannelID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
	Limit     int             `json:"-" query:"limit" validate:"gte=0,lte=100"`
}

type createChannelRequest struct {
	UserID models.ObjectID    `json:"-" jwt:"sub" validate:"required"`
	Name   string             `json:"name" validate:"required,nonblank,max=80"`
	Topic  string             `json:"topic" validate:"max=250"`
	Type   models.ChannelType `json:"type" validate:"omitempty,oneof=public private"`
}

type openDMRequest struct {
	UserID  models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	OtherID models.ObjectID `json:"user_id" validate:"required,objectid"`
}

type createBulletinRequest struct {
	UserID    models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	ChannelID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
	Title     string          `json:"title" validate:"required,max=120"`
	Body      string          `json:"body"`
}

type olderMessagesRequest struct {
	UserID    models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	ChannelID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
	Before    int64           `json:"-" query:"before" validate:"gt=0"`
	Limit     int             `json:"-" query:"limit" validate:"gte=0,lte=100"`
}

type sendMessageRequest struct {
	UserID    models.ObjectID      `json:"-" jwt:"sub" validate:"required"`
	ChannelID models.ObjectID      `json:"-" param:"id" validate:"required,objectid"`
	Body      string               `json:"body" validate:"required,nonblank"`
	Format    models.MessageFormat `json:"format" validate:"omitempty,oneof=text image"`
	ReplyToID *models.ObjectID     `json:"reply_to_id" validate:"omitempty,objectid"`
}

type messageRequest struct {
	UserID    models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	MessageID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
}

type messageLimitRequest struct {
	UserID    models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	MessageID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
	Limit     int             `json:"-" query:"limit" validate:"gte=0,lte=100"`
}

type messageContextRequest struct {
	UserID    models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	MessageID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
	Size      int             `json:"-" query:"size" validate:"gte=0,lte=50"`
}

type editMessageRequest struct {
	UserID    models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	MessageID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
	Body      string          `json:"body" validate:"required,nonblank"`
}

type reactionRequest struct {
	UserID    models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	MessageID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
	Emoji     string          `json:"emoji" validate:"required,nonblank,max=32"`
}

type removeReactionRequest struct {
	UserID    models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	MessageID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
	Emoji     string          `json:"-" param:"emoji" validate:"required,max=32"`
}

type updateMeRequest struct {
	UserID models.ObjectID `json:"-" jwt:"sub" validate:"required"`
	Name   string          `json:"name" validate:"required,max=80"`
	Email  string          `json:"email" validate:"omitempty,email"`
	Title  string          `json:"title" validate:"max=80"`
}

type getUserRequest struct {
	ID models.ObjectID `json:"-" param:"id" validate:"required,objectid"`
}

type directoryRequest struct {
	Query  string `json:"-" query:"q" validate:"max=80"`
	Limit  int    `json:"-" query:"limit" validate:"gte=0,lte=100"`
	Offset int    `json:"-" query:"offset" validate:"gte=0"`
}
