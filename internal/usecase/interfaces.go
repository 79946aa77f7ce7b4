package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

// EventPublisher announces message changes. The local hub publishes
// straight to its subscribers, the kafka producer fans out to every node.
type EventPublisher interface {
	Publish(ctx context.Context, event models.MessageEvent) error
}

// LiveWindowSource answers the live window query of a channel.
type LiveWindowSource interface {
	ListLatest(ctx context.Context, channelID models.ObjectID, limit int) (models.LiveBatch, error)
}
