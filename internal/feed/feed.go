// Package feed keeps an ordered, duplicate free message window in sync with
// a live subscription while the user pages through history.
package feed

import (
	"context"

	"github.com/nguyentranbao-ct/team-chat/internal/config"
)

// Feed is the contract shared by SimpleFeed and ContextFeed.
type Feed interface {
	Start(ctx context.Context) error
	Dispatch(ev Event)
	Subscribe(fn func(State)) func()
	State() State
	Close()
}

var (
	_ Feed = (*SimpleFeed)(nil)
	_ Feed = (*ContextFeed)(nil)
)

// Open picks the feed a link asks for: a ContextFeed when it targets a
// message, a SimpleFeed otherwise.
func Open(link MessageLink, src DataSource, vp Viewport, conf config.FeedConfig, opts ...Option) Feed {
	if link.HasTarget() {
		return NewContextFeed(src, vp, conf, link.ConversationID, link.MessageID, opts...)
	}
	return NewSimpleFeed(src, vp, conf, link.ConversationID, "", opts...)
}
