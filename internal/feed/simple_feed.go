package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

// SimpleFeed follows the latest messages of a channel and grows backwards
// when the user scrolls to the top. A target older than the first live
// window is reached by paging back to it before the feed settles.
type SimpleFeed struct {
	*machine
	src       DataSource
	keeper    *AnchorKeeper
	conf      config.FeedConfig
	channelID models.ObjectID
	targetID  models.ObjectID
	older     *Boundary

	received   bool
	seeking    bool
	lastScroll time.Time
}

func NewSimpleFeed(
	src DataSource,
	vp Viewport,
	conf config.FeedConfig,
	channelID, targetID models.ObjectID,
	opts ...Option,
) *SimpleFeed {
	o := buildOptions(opts)
	f := &SimpleFeed{
		machine:   newMachine(o, conf.FetchTimeout),
		src:       src,
		keeper:    NewAnchorKeeper(vp, conf.RestoreSettle, o.now),
		conf:      conf,
		channelID: channelID,
		targetID:  targetID,
		older:     NewBoundary(conf.Cooldown, conf.FailurePenalty),
	}
	f.handle = f.reduce
	f.st = State{
		ChannelID:       channelID,
		Messages:        []models.Message{},
		HasMoreOlder:    true,
		TargetMessageID: targetID,
		HighlightTarget: targetID != "",
		IsLoading:       true,
	}
	return f
}

// Start subscribes to the live window. The feed stops when ctx is done or
// Close is called.
func (f *SimpleFeed) Start(ctx context.Context) error {
	ctx = f.begin(ctx)
	batches, err := f.src.SubscribeMessages(ctx, f.channelID)
	if err != nil {
		return fmt.Errorf("subscribe messages: %w", err)
	}
	f.pump(batches)
	return nil
}

func (f *SimpleFeed) reduce(ev Event) (bool, []func()) {
	switch ev := ev.(type) {
	case LiveBatchArrived:
		return f.onLiveBatch(ev.Batch)
	case LiveFailed:
		f.log.Warnw("live subscription failed", "channel_id", f.channelID, "error", ev.Err)
		f.st.LiveLost = true
		if !f.received {
			f.st.IsLoading = false
		}
		return true, nil
	case TargetSeekRequested:
		f.seekTarget()
	case TargetSeekDone:
		return f.onSeekDone(ev)
	case TargetSeekFailed:
		if f.older.Fail(f.now()) {
			f.log.Warnw("page back to target", "channel_id", f.channelID, "message_id", f.targetID, "error", ev.Err)
			f.later(f.older.RetryIn(f.now()), TargetSeekRequested{})
		}
	case ScrollChanged:
		return f.onScroll()
	case JumpToLatest:
		f.st.NewMessagesAvailable = false
		f.st.Scroll = ScrollToLatest
		return true, []func(){f.scrollToBottom}
	case OlderLoadRequested:
		return f.requestOlder(), nil
	case OlderLoadSucceeded:
		return f.onOlderLoaded(ev)
	case OlderLoadFailed:
		if f.older.Fail(f.now()) {
			f.log.Warnw("load older messages", "channel_id", f.channelID, "error", ev.Err)
			f.st.LoadingOlder = false
			return true, nil
		}
	}
	return false, nil
}

func (f *SimpleFeed) onLiveBatch(b models.LiveBatch) (bool, []func()) {
	prev := f.st.Messages
	next := MergeAuthoritativeRange(prev, b.Messages, b.Range)
	if b.Range.From == 0 {
		// the live window already holds the whole history
		f.older.Exhaust()
	}

	if !f.received {
		f.received = true
		f.st.Messages = next
		f.st.IsLoading = false
		f.st.HasMoreOlder = f.older.CanLoad
		switch {
		case f.targetID == "":
		case indexOf(next, f.targetID) >= 0:
			f.st.Scroll = ScrollCenterTarget
			return true, []func(){f.centerTarget}
		case f.older.CanLoad && len(next) > 0:
			f.seeking = true
			f.st.IsLoading = true
			f.seekTarget()
			return true, nil
		default:
			f.st.NotFound = true
		}
		f.st.HighlightTarget = false
		f.st.Scroll = ScrollToLatest
		return true, []func(){f.scrollToBottom}
	}

	moreOlderChanged := f.st.HasMoreOlder != f.older.CanLoad
	f.st.HasMoreOlder = f.older.CanLoad
	if sameContent(prev, next) {
		return moreOlderChanged, nil
	}

	grew := newestTime(next) > newestTime(prev)
	nearBottom := DistanceFromBottom(f.keeper.Viewport()) <= f.conf.NearBottom
	f.st.Messages = next
	if f.seeking {
		return true, nil
	}
	if grew && nearBottom {
		f.st.NewMessagesAvailable = false
		f.st.Scroll = ScrollToLatest
		return true, []func(){f.scrollToBottom}
	}
	if grew {
		f.st.NewMessagesAvailable = true
	}
	return true, nil
}

func (f *SimpleFeed) onScroll() (bool, []func()) {
	if f.throttled(&f.lastScroll, f.conf.ScrollThrottle) {
		return false, nil
	}
	if !f.received || f.seeking || f.keeper.Busy() {
		return false, nil
	}

	vp := f.keeper.Viewport()
	changed := false
	if f.st.NewMessagesAvailable && DistanceFromBottom(vp) <= f.conf.AutoScrollDistance {
		f.st.NewMessagesAvailable = false
		changed = true
	}
	if vp.ScrollTop() <= f.conf.EdgeThreshold {
		changed = f.requestOlder() || changed
	}
	return changed, nil
}

func (f *SimpleFeed) requestOlder() bool {
	if len(f.st.Messages) == 0 || !f.older.TryBegin(f.now()) {
		return false
	}
	f.st.LoadingOlder = true

	channelID := f.channelID
	before := f.st.Messages[0].CreationTime
	limit := f.conf.PageSize
	f.fetch(func(ctx context.Context) Event {
		msgs, err := f.src.GetOlderMessages(ctx, channelID, before, limit)
		if err != nil {
			return OlderLoadFailed{Err: err}
		}
		return OlderLoadSucceeded{Messages: msgs, Limit: limit}
	})
	return true
}

// onOlderLoaded keeps the visible content in place by shifting the scroll
// offset by the height the new page added above it.
func (f *SimpleFeed) onOlderLoaded(ev OlderLoadSucceeded) (bool, []func()) {
	if !f.older.Succeed(len(ev.Messages), ev.Limit) {
		return false, nil
	}
	vp := f.keeper.Viewport()
	prevTop, prevHeight := vp.ScrollTop(), vp.ScrollHeight()

	f.st.LoadingOlder = false
	f.st.HasMoreOlder = f.older.CanLoad
	f.st.Messages = MergeOlder(f.st.Messages, ev.Messages)
	f.st.Scroll = ScrollKeepHeightDelta
	return true, []func(){func() {
		f.keeper.Adjust(func(vp Viewport) {
			vp.SetScrollTop(prevTop + vp.ScrollHeight() - prevHeight)
		})
	}}
}

// seekTarget pages back from the oldest loaded message until the target
// shows up or history runs out, as one boundary request.
func (f *SimpleFeed) seekTarget() {
	if !f.seeking || len(f.st.Messages) == 0 || !f.older.TryBegin(f.now()) {
		return
	}
	f.st.LoadingOlder = true

	channelID, targetID := f.channelID, f.targetID
	before := f.st.Messages[0].CreationTime
	limit := f.conf.PageSize
	f.fetch(func(ctx context.Context) Event {
		var loaded []models.Message
		for {
			page, err := f.src.GetOlderMessages(ctx, channelID, before, limit)
			if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrForbidden) {
				return TargetSeekDone{Messages: loaded, Exhausted: true}
			}
			if err != nil {
				return TargetSeekFailed{Err: err}
			}
			loaded = append(append([]models.Message(nil), page...), loaded...)
			found := indexOf(page, targetID) >= 0
			if found || len(page) == 0 || len(page) < limit {
				return TargetSeekDone{Messages: loaded, Found: found, Exhausted: len(page) < limit}
			}
			before = SortByTime(page)[0].CreationTime
		}
	})
}

func (f *SimpleFeed) onSeekDone(ev TargetSeekDone) (bool, []func()) {
	if !f.older.Succeed(1, 1) {
		return false, nil
	}
	if ev.Exhausted {
		f.older.Exhaust()
	}
	f.seeking = false
	f.st.IsLoading = false
	f.st.LoadingOlder = false
	f.st.HasMoreOlder = f.older.CanLoad
	f.st.Messages = MergeOlder(f.st.Messages, ev.Messages)
	if ev.Found {
		f.st.Scroll = ScrollCenterTarget
		return true, []func(){f.centerTarget}
	}
	f.st.NotFound = true
	f.st.HighlightTarget = false
	f.st.Scroll = ScrollToLatest
	return true, []func(){f.scrollToBottom}
}

func (f *SimpleFeed) scrollToBottom() {
	f.keeper.Adjust(ScrollToBottom)
}

func (f *SimpleFeed) centerTarget() {
	f.keeper.Adjust(func(vp Viewport) {
		CenterOn(vp, f.targetID)
	})
}
