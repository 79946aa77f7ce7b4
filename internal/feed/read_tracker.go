package feed

import (
	"context"
	"sync"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
	"github.com/nguyentranbao-ct/team-chat/pkg/util"
)

// ReadTracker marks messages read when they become visible enough. It knows
// nothing about pagination or anchors and never waits on them.
type ReadTracker struct {
	mu        sync.Mutex
	src       DataSource
	userID    models.ObjectID
	channelID models.ObjectID
	threshold float64
	timeout   time.Duration
	log       *logger.Logger

	visible map[models.ObjectID]bool // registered elements, true while above threshold
	sent    map[models.ObjectID]bool // marked during this session
	wg      sync.WaitGroup
}

func NewReadTracker(src DataSource, userID, channelID models.ObjectID, threshold float64, timeout time.Duration) *ReadTracker {
	if threshold <= 0 {
		threshold = 0.5
	}
	return &ReadTracker{
		src:       src,
		userID:    userID,
		channelID: channelID,
		threshold: threshold,
		timeout:   timeout,
		log:       logger.MustNamed("read_tracker"),
		visible:   map[models.ObjectID]bool{},
		sent:      map[models.ObjectID]bool{},
	}
}

// Register starts observing the element of a mounted message.
func (t *ReadTracker) Register(id models.ObjectID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.visible[id]; !ok {
		t.visible[id] = false
	}
}

func (t *ReadTracker) Unregister(id models.ObjectID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.visible, id)
}

// Observe reports the visible share of a registered element. Crossing the
// threshold upwards marks the message read, once per session.
func (t *ReadTracker) Observe(id models.ObjectID, ratio float64) {
	t.mu.Lock()
	wasVisible, registered := t.visible[id]
	if !registered {
		t.mu.Unlock()
		return
	}
	isVisible := ratio > t.threshold
	t.visible[id] = isVisible
	send := isVisible && !wasVisible && !t.sent[id]
	if send {
		t.sent[id] = true
	}
	t.mu.Unlock()

	if send {
		t.mark(id)
	}
}

// ObserveViewport feeds the visibility of every registered element of a
// ListViewport.
func (t *ReadTracker) ObserveViewport(vp *ListViewport) {
	t.mu.Lock()
	ids := make([]models.ObjectID, 0, len(t.visible))
	for id := range t.visible {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	for _, id := range ids {
		t.Observe(id, vp.VisibleRatio(id))
	}
}

// Sync registers the messages of a rendered state and drops the rest.
func (t *ReadTracker) Sync(st State) {
	present := idSet(st.Messages)
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.visible {
		if _, ok := present[id]; !ok {
			delete(t.visible, id)
		}
	}
	for id := range present {
		if _, ok := t.visible[id]; !ok {
			t.visible[id] = false
		}
	}
}

func (t *ReadTracker) mark(id models.ObjectID) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := util.NewTimeoutContext(context.Background(), t.timeout)
		defer cancel()
		if err := t.src.MarkMessageAsRead(ctx, id, t.userID, t.channelID); err != nil {
			t.log.Warnw("mark message as read", "message_id", id, "error", err)
			t.mu.Lock()
			delete(t.sent, id)
			t.mu.Unlock()
		}
	}()
}

// Wait blocks until in-flight marks are done.
func (t *ReadTracker) Wait() {
	t.wg.Wait()
}
