package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

// ContextFeed is centred on a deep-linked message and pages in both
// directions. Every page goes through capture, merge, render, restore.
type ContextFeed struct {
	*machine
	src       DataSource
	keeper    *AnchorKeeper
	conf      config.FeedConfig
	channelID models.ObjectID
	targetID  models.ObjectID
	older     *Boundary
	newer     *Boundary
	seed      *Boundary

	seeded     bool
	latest     *models.LiveBatch
	epoch      int
	lastScroll time.Time
}

func NewContextFeed(
	src DataSource,
	vp Viewport,
	conf config.FeedConfig,
	channelID, targetID models.ObjectID,
	opts ...Option,
) *ContextFeed {
	o := buildOptions(opts)
	f := &ContextFeed{
		machine:   newMachine(o, conf.FetchTimeout),
		src:       src,
		keeper:    NewAnchorKeeper(vp, conf.RestoreSettle, o.now),
		conf:      conf,
		channelID: channelID,
		targetID:  targetID,
		older:     NewBoundary(conf.Cooldown, conf.FailurePenalty),
		newer:     NewBoundary(conf.Cooldown, conf.FailurePenalty),
		seed:      NewBoundary(0, conf.FailurePenalty),
	}
	f.handle = f.reduce
	f.st = State{
		ChannelID:       channelID,
		Messages:        []models.Message{},
		HasMoreOlder:    true,
		HasMoreNewer:    true,
		TargetMessageID: targetID,
		HighlightTarget: true,
		IsLoading:       true,
	}
	return f
}

// Start fetches the context around the target and subscribes to the live
// window of the channel.
func (f *ContextFeed) Start(ctx context.Context) error {
	ctx = f.begin(ctx)
	batches, err := f.src.SubscribeMessages(ctx, f.channelID)
	if err != nil {
		return fmt.Errorf("subscribe messages: %w", err)
	}
	f.pump(batches)
	f.Dispatch(ContextRequested{})
	return nil
}

func (f *ContextFeed) reduce(ev Event) (bool, []func()) {
	switch ev := ev.(type) {
	case ContextRequested:
		f.requestContext()
	case ContextLoaded:
		return f.onContext(ev.Context)
	case ContextNotFound:
		return f.onNotFound()
	case ContextFailed:
		if f.seed.Fail(f.now()) {
			f.log.Warnw("load message context", "message_id", f.targetID, "error", ev.Err)
			f.later(f.seed.RetryIn(f.now()), ContextRequested{})
		}
	case LiveBatchArrived:
		b := ev.Batch
		f.latest = &b
		if !f.seeded {
			return false, nil
		}
		return f.applyLive(b)
	case LiveFailed:
		f.log.Warnw("live subscription failed", "channel_id", f.channelID, "error", ev.Err)
		f.st.LiveLost = true
		return true, nil
	case ScrollChanged:
		return f.onScroll(), nil
	case JumpToLatest:
		return f.jumpToLatest()
	case OlderLoadRequested:
		return f.requestOlder(), nil
	case NewerLoadRequested:
		return f.requestNewer(), nil
	case OlderLoadSucceeded:
		if ev.epoch != f.epoch {
			return false, nil
		}
		return f.onPage(ev, Older, ev.Messages, ev.Limit)
	case NewerLoadSucceeded:
		if ev.epoch != f.epoch {
			return false, nil
		}
		return f.onPage(ev, Newer, ev.Messages, ev.Limit)
	case OlderLoadFailed:
		return ev.epoch == f.epoch && f.onPageFailed(Older, ev.Err), nil
	case NewerLoadFailed:
		return ev.epoch == f.epoch && f.onPageFailed(Newer, ev.Err), nil
	}
	return false, nil
}

// requestContext starts the seed fetch. A request that arrives while the
// failure penalty still runs is put back until the boundary is ready.
func (f *ContextFeed) requestContext() {
	if f.seeded || f.seed.Loading {
		return
	}
	if !f.seed.TryBegin(f.now()) {
		f.later(f.seed.RetryIn(f.now()), ContextRequested{})
		return
	}
	targetID := f.targetID
	size := f.conf.ContextSize
	f.fetch(func(ctx context.Context) Event {
		mc, err := f.src.GetMessageContext(ctx, targetID, size)
		switch {
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrForbidden):
			return ContextNotFound{}
		case err != nil:
			return ContextFailed{Err: err}
		}
		if mc.TargetIndex < 0 || mc.TargetIndex >= len(mc.Messages) || mc.Messages[mc.TargetIndex].ID != targetID {
			return ContextNotFound{}
		}
		return ContextLoaded{Context: mc}
	})
}

func (f *ContextFeed) onContext(mc models.MessageContext) (bool, []func()) {
	if !f.seed.Succeed(1, 1) {
		return false, nil
	}
	f.seeded = true
	window := normalize(mc.Messages)
	idx := indexOf(window, f.targetID)
	if idx < f.conf.ContextSize {
		f.older.Exhaust()
	}
	if len(window)-1-idx < f.conf.ContextSize {
		f.newer.Exhaust()
	}

	f.st.Messages = window
	f.st.IsLoading = false
	f.st.HasMoreOlder = f.older.CanLoad
	f.st.HasMoreNewer = f.newer.CanLoad
	if f.latest != nil && f.reachesLive(f.latest.Range) {
		f.st.Messages = MergeAuthoritativeRange(f.st.Messages, f.latest.Messages, f.latest.Range)
		f.newer.Exhaust()
		f.st.HasMoreNewer = false
	}
	f.st.Scroll = ScrollCenterTarget
	return true, []func(){func() {
		f.keeper.Adjust(func(vp Viewport) { CenterOn(vp, f.targetID) })
	}}
}

func (f *ContextFeed) onNotFound() (bool, []func()) {
	if !f.seed.Succeed(1, 1) {
		return false, nil
	}
	f.seeded = true
	f.older.Exhaust()
	f.newer.Exhaust()
	f.st = State{
		ChannelID:       f.channelID,
		Messages:        []models.Message{},
		TargetMessageID: f.targetID,
		NotFound:        true,
		LiveLost:        f.st.LiveLost,
	}
	return true, nil
}

// reachesLive reports whether the window touches the range a live batch is
// authoritative for. A window paged in far in the past does not, and merging
// the live batch into it would leave a hole.
func (f *ContextFeed) reachesLive(rng models.LiveRange) bool {
	if len(f.st.Messages) == 0 || !f.newer.CanLoad {
		return true
	}
	return newestTime(f.st.Messages) >= rng.From
}

func (f *ContextFeed) applyLive(b models.LiveBatch) (bool, []func()) {
	if f.st.NotFound || !f.reachesLive(b.Range) {
		return false, nil
	}
	prev := f.st.Messages
	next := MergeAuthoritativeRange(prev, b.Messages, b.Range)

	// the window now runs up to the live edge
	hadMoreNewer := f.st.HasMoreNewer
	if !f.newer.Loading {
		f.newer.Exhaust()
		f.st.HasMoreNewer = false
	}
	if sameContent(prev, next) {
		return hadMoreNewer && !f.st.HasMoreNewer, nil
	}

	vp := f.keeper.Viewport()
	grew := newestTime(next) > newestTime(prev)
	nearBottom := DistanceFromBottom(vp) <= f.conf.NearBottom
	f.st.Messages = next
	if grew && nearBottom {
		f.st.NewMessagesAvailable = false
		f.st.Scroll = ScrollToLatest
		return true, []func(){func() { f.keeper.Adjust(ScrollToBottom) }}
	}
	if grew {
		f.st.NewMessagesAvailable = true
	}
	anchor, ok := f.keeper.Capture()
	if !ok || anchor == nil {
		return true, nil
	}
	f.st.Scroll = ScrollRestoreAnchor
	return true, []func(){func() { f.keeper.Restore(anchor) }}
}

func (f *ContextFeed) onScroll() bool {
	if f.throttled(&f.lastScroll, f.conf.ScrollThrottle) {
		return false
	}
	if !f.seeded || f.st.NotFound || f.keeper.Busy() {
		return false
	}

	vp := f.keeper.Viewport()
	changed := false
	if f.st.NewMessagesAvailable && !f.newer.CanLoad && DistanceFromBottom(vp) <= f.conf.AutoScrollDistance {
		f.st.NewMessagesAvailable = false
		changed = true
	}
	if vp.ScrollTop() <= f.conf.EdgeThreshold {
		changed = f.requestOlder() || changed
	}
	if DistanceFromBottom(vp) <= f.conf.EdgeThreshold {
		changed = f.requestNewer() || changed
	}
	return changed
}

func (f *ContextFeed) requestOlder() bool {
	if !f.seeded || len(f.st.Messages) == 0 || !f.older.TryBegin(f.now()) {
		return false
	}
	f.st.LoadingOlder = true
	f.st.HighlightTarget = false

	oldest := f.st.Messages[0].ID
	limit, epoch := f.conf.PageSize, f.epoch
	f.fetch(func(ctx context.Context) Event {
		msgs, err := f.src.GetMessagesBeforeMessage(ctx, oldest, limit)
		if err != nil {
			return OlderLoadFailed{Err: err, epoch: epoch}
		}
		return OlderLoadSucceeded{Messages: msgs, Limit: limit, epoch: epoch}
	})
	return true
}

func (f *ContextFeed) requestNewer() bool {
	if !f.seeded || len(f.st.Messages) == 0 || !f.newer.TryBegin(f.now()) {
		return false
	}
	f.st.LoadingNewer = true
	f.st.HighlightTarget = false

	newest := f.st.Messages[len(f.st.Messages)-1].ID
	limit, epoch := f.conf.PageSize, f.epoch
	f.fetch(func(ctx context.Context) Event {
		msgs, err := f.src.GetMessagesAfterMessage(ctx, newest, limit)
		if err != nil {
			return NewerLoadFailed{Err: err, epoch: epoch}
		}
		return NewerLoadSucceeded{Messages: msgs, Limit: limit, epoch: epoch}
	})
	return true
}

// jumpToLatest replaces a window that stops short of the live edge with the
// latest live batch and starts a new epoch, so pages still in flight for the
// old window are dropped. Before any live batch arrived it can only page
// forward once per call.
func (f *ContextFeed) jumpToLatest() (bool, []func()) {
	if !f.seeded || f.st.NotFound {
		return false, nil
	}
	f.st.HighlightTarget = false
	f.st.NewMessagesAvailable = false
	if f.newer.CanLoad {
		if f.latest == nil {
			f.requestNewer()
			return true, nil
		}
		f.epoch++
		f.older = NewBoundary(f.conf.Cooldown, f.conf.FailurePenalty)
		f.newer = NewBoundary(f.conf.Cooldown, f.conf.FailurePenalty)
		f.newer.Exhaust()
		if f.latest.Range.From == 0 {
			f.older.Exhaust()
		}
		f.st.Messages = MergeAuthoritativeRange(nil, f.latest.Messages, f.latest.Range)
		f.st.LoadingOlder = false
		f.st.LoadingNewer = false
		f.st.HasMoreOlder = f.older.CanLoad
		f.st.HasMoreNewer = false
	}
	f.st.Scroll = ScrollToLatest
	return true, []func(){func() { f.keeper.Adjust(ScrollToBottom) }}
}

// onPage merges a page. While a previous restore is still settling the
// event is put back until the settle window closes, so the anchor is never
// measured against a viewport that is being moved.
func (f *ContextFeed) onPage(ev Event, dir Direction, msgs []models.Message, limit int) (bool, []func()) {
	b := f.boundary(dir)
	if !b.Loading {
		return false, nil
	}
	if f.keeper.Busy() {
		f.later(f.keeper.Remaining(), ev)
		return false, nil
	}
	anchor, _ := f.keeper.Capture()
	b.Succeed(len(msgs), limit)

	if dir == Older {
		f.st.Messages = MergeOlder(f.st.Messages, msgs)
		f.st.LoadingOlder = false
		f.st.HasMoreOlder = b.CanLoad
	} else {
		f.st.Messages = MergeNewer(f.st.Messages, msgs)
		f.st.LoadingNewer = false
		f.st.HasMoreNewer = b.CanLoad
		if !b.CanLoad {
			f.st.NewMessagesAvailable = false
		}
	}
	f.st.Scroll = ScrollRestoreAnchor
	return true, []func(){func() { f.keeper.Restore(anchor) }}
}

func (f *ContextFeed) onPageFailed(dir Direction, err error) bool {
	b := f.boundary(dir)
	if !b.Fail(f.now()) {
		return false
	}
	f.log.Warnw("load page", "direction", dir, "channel_id", f.channelID, "error", err)
	if dir == Older {
		f.st.LoadingOlder = false
	} else {
		f.st.LoadingNewer = false
	}
	return true
}

func (f *ContextFeed) boundary(dir Direction) *Boundary {
	if dir == Older {
		return f.older
	}
	return f.newer
}
