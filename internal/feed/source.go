package feed

import (
	"context"
	"errors"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

// ErrLiveClosed is reported when a source ends a live subscription on its
// own, for example after access to the channel was revoked.
var ErrLiveClosed = errors.New("live subscription closed")

// DataSource is the reactive query layer the feeds read from. One instance is
// built per process and handed to every feed.
type DataSource interface {
	// SubscribeMessages delivers the full live window of a channel on every
	// change until ctx is done, then closes the channel. A source that gives
	// up earlier closes the channel too.
	SubscribeMessages(ctx context.Context, channelID models.ObjectID) (<-chan models.LiveBatch, error)
	GetMessageContext(ctx context.Context, messageID models.ObjectID, contextSize int) (models.MessageContext, error)
	GetOlderMessages(ctx context.Context, channelID models.ObjectID, beforeTime int64, limit int) ([]models.Message, error)
	GetMessagesBeforeMessage(ctx context.Context, messageID models.ObjectID, limit int) ([]models.Message, error)
	GetMessagesAfterMessage(ctx context.Context, messageID models.ObjectID, limit int) ([]models.Message, error)
	MarkMessageAsRead(ctx context.Context, messageID, userID, channelID models.ObjectID) error
}
