package usecase

import (
	"context"
	"sync"

	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"github.com/prometheus/client_golang/prometheus"
)

var liveSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "team_chat_live_subscribers",
	Help: "Number of open live window subscriptions",
})

func init() {
	prometheus.MustRegister(liveSubscribers)
}

// LiveHub serves reactive live window queries. Any change event of a
// channel re-runs the query and pushes the full batch to every subscriber
// of that channel.
type LiveHub interface {
	EventPublisher
	// Subscribe delivers the current window right away and then after every
	// change. The channel is closed once ctx is done.
	Subscribe(ctx context.Context, channelID models.ObjectID) (<-chan models.LiveBatch, error)
}

type liveSubscriber struct {
	ch chan models.LiveBatch
}

type liveChannel struct {
	subs      map[*liveSubscriber]struct{}
	seq       uint64 // bumped when a query starts
	delivered uint64 // seq of the newest batch pushed
}

type liveHub struct {
	mu       sync.Mutex
	source   LiveWindowSource
	size     int
	channels map[models.ObjectID]*liveChannel
}

func NewLiveHub(source LiveWindowSource, conf *config.Config) LiveHub {
	return newLiveHub(source, conf.Feed.LiveWindowSize)
}

func newLiveHub(source LiveWindowSource, size int) *liveHub {
	return &liveHub{
		source:   source,
		size:     size,
		channels: map[models.ObjectID]*liveChannel{},
	}
}

func (h *liveHub) Subscribe(ctx context.Context, channelID models.ObjectID) (<-chan models.LiveBatch, error) {
	sub := &liveSubscriber{ch: make(chan models.LiveBatch, 1)}

	h.mu.Lock()
	lc, ok := h.channels[channelID]
	if !ok {
		lc = &liveChannel{subs: map[*liveSubscriber]struct{}{}}
		h.channels[channelID] = lc
	}
	lc.subs[sub] = struct{}{}
	h.mu.Unlock()
	liveSubscribers.Inc()

	if err := h.refresh(ctx, channelID); err != nil {
		h.unsubscribe(channelID, sub)
		return nil, err
	}

	go func() {
		<-ctx.Done()
		h.unsubscribe(channelID, sub)
	}()
	return sub.ch, nil
}

// Publish re-runs the live query of the event's channel.
func (h *liveHub) Publish(ctx context.Context, event models.MessageEvent) error {
	h.mu.Lock()
	_, watched := h.channels[event.ChannelID]
	h.mu.Unlock()
	if !watched {
		return nil
	}
	return h.refresh(ctx, event.ChannelID)
}

func (h *liveHub) refresh(ctx context.Context, channelID models.ObjectID) error {
	h.mu.Lock()
	lc, ok := h.channels[channelID]
	if !ok {
		h.mu.Unlock()
		return nil
	}
	lc.seq++
	seq := lc.seq
	h.mu.Unlock()

	batch, err := h.source.ListLatest(ctx, channelID, h.size)
	if err != nil {
		log.Warnw(ctx, "failed to query live window", "channel_id", channelID, "error", err)
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	// a slower query for an older change must not overwrite a newer window
	if lc.delivered > seq {
		return nil
	}
	lc.delivered = seq
	for sub := range lc.subs {
		sub.offer(batch)
	}
	return nil
}

func (h *liveHub) unsubscribe(channelID models.ObjectID, sub *liveSubscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lc, ok := h.channels[channelID]
	if !ok {
		return
	}
	if _, ok := lc.subs[sub]; !ok {
		return
	}
	delete(lc.subs, sub)
	close(sub.ch)
	liveSubscribers.Dec()
	if len(lc.subs) == 0 {
		delete(h.channels, channelID)
	}
}

// offer replaces an undelivered batch; a slow reader only ever sees the
// newest window. Must be called with the hub lock held.
func (s *liveSubscriber) offer(batch models.LiveBatch) {
	select {
	case s.ch <- batch:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- batch
}
