package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
)

func msg(i int) models.Message {
	return models.Message{
		ID:           models.ObjectID(fmt.Sprintf("m%d", i)),
		ChannelID:    "c1",
		AuthorID:     "u1",
		Body:         fmt.Sprintf("message %d", i),
		Format:       models.FormatText,
		CreationTime: int64(i * 10),
	}
}

func msgs(from, to int) []models.Message {
	out := make([]models.Message, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, msg(i))
	}
	return out
}

func ids(list []models.Message) []models.ObjectID {
	out := make([]models.ObjectID, len(list))
	for i, m := range list {
		out[i] = m.ID
	}
	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() config.FeedConfig {
	conf := config.DefaultFeedConfig()
	conf.PageSize = 20
	conf.ContextSize = 15
	conf.Cooldown = time.Second
	conf.FailurePenalty = 3 * time.Second
	conf.RestoreSettle = 0
	conf.ScrollThrottle = 0
	conf.FetchTimeout = time.Second
	return conf
}

// fakeSource serves a channel of n messages m1..mn.
type fakeSource struct {
	mu      sync.Mutex
	store   []models.Message
	live    chan models.LiveBatch
	calls   map[string]int
	gate    chan struct{}
	errs    map[string]error
	ctxResp *models.MessageContext
	marked  []models.ObjectID
}

func newFakeSource(n int) *fakeSource {
	return &fakeSource{
		store: msgs(1, n),
		live:  make(chan models.LiveBatch, 8),
		calls: map[string]int{},
		errs:  map[string]error{},
	}
}

func (s *fakeSource) enter(ctx context.Context, name string) error {
	s.mu.Lock()
	s.calls[name]++
	gate := s.gate
	err := s.errs[name]
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (s *fakeSource) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *fakeSource) hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
}

func (s *fakeSource) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

func (s *fakeSource) fail(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[name] = err
}

func (s *fakeSource) liveBatch(size int) models.LiveBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := max(len(s.store)-size, 0)
	window := append([]models.Message(nil), s.store[start:]...)
	rng := models.LiveRange{}
	if start > 0 {
		rng.From = window[0].CreationTime
	}
	return models.LiveBatch{ChannelID: "c1", Messages: window, Range: rng}
}

func (s *fakeSource) SubscribeMessages(ctx context.Context, channelID models.ObjectID) (<-chan models.LiveBatch, error) {
	// never gated, so hold() can be armed before Start
	s.mu.Lock()
	s.calls["subscribe"]++
	err := s.errs["subscribe"]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.live, nil
}

func (s *fakeSource) GetMessageContext(ctx context.Context, messageID models.ObjectID, contextSize int) (models.MessageContext, error) {
	if err := s.enter(ctx, "context"); err != nil {
		return models.MessageContext{}, err
	}
	if s.ctxResp != nil {
		return *s.ctxResp, nil
	}
	i := s.position(messageID)
	if i < 0 {
		return models.MessageContext{}, models.ErrNotFound
	}
	lo := max(i-contextSize, 0)
	hi := min(i+contextSize+1, len(s.store))
	return models.MessageContext{
		Messages:    append([]models.Message(nil), s.store[lo:hi]...),
		TargetIndex: i - lo,
	}, nil
}

func (s *fakeSource) GetOlderMessages(ctx context.Context, channelID models.ObjectID, beforeTime int64, limit int) ([]models.Message, error) {
	if err := s.enter(ctx, "older"); err != nil {
		return nil, err
	}
	var older []models.Message
	for _, m := range s.store {
		if m.CreationTime < beforeTime {
			older = append(older, m)
		}
	}
	return older[max(len(older)-limit, 0):], nil
}

func (s *fakeSource) GetMessagesBeforeMessage(ctx context.Context, messageID models.ObjectID, limit int) ([]models.Message, error) {
	if err := s.enter(ctx, "before"); err != nil {
		return nil, err
	}
	i := s.position(messageID)
	if i < 0 {
		return nil, models.ErrNotFound
	}
	return append([]models.Message(nil), s.store[max(i-limit, 0):i]...), nil
}

func (s *fakeSource) GetMessagesAfterMessage(ctx context.Context, messageID models.ObjectID, limit int) ([]models.Message, error) {
	if err := s.enter(ctx, "after"); err != nil {
		return nil, err
	}
	i := s.position(messageID)
	if i < 0 {
		return nil, models.ErrNotFound
	}
	return append([]models.Message(nil), s.store[i+1:min(i+1+limit, len(s.store))]...), nil
}

func (s *fakeSource) MarkMessageAsRead(ctx context.Context, messageID, userID, channelID models.ObjectID) error {
	if err := s.enter(ctx, "mark"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, messageID)
	return nil
}

func (s *fakeSource) position(id models.ObjectID) int {
	for i, m := range s.store {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func quiet() Option {
	return WithLogger(logger.Nop())
}
