package usecase

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/internal/repo/mongodb"
)

// memStore backs every fake repository of these tests.
type memStore struct {
	mu        sync.Mutex
	channels  map[models.ObjectID]models.Channel
	members   []models.ChannelMember
	users     map[models.ObjectID]models.User
	messages  []models.Message
	reactions []models.Reaction
	receipts  []models.ReadReceipt
	bulletins []models.Bulletin
	clock     int64
	queries   int
}

func newMemStore() *memStore {
	return &memStore{
		channels: map[models.ObjectID]models.Channel{},
		users:    map[models.ObjectID]models.User{},
	}
}

type (
	fakeChannels  struct{ *memStore }
	fakeMembers   struct{ *memStore }
	fakeUsers     struct{ *memStore }
	fakeMessages  struct{ *memStore }
	fakeReactions struct{ *memStore }
	fakeReceipts  struct{ *memStore }
	fakeBulletins struct{ *memStore }
)

func (s fakeChannels) Create(ctx context.Context, channel *models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel.DMKey != "" {
		for _, c := range s.channels {
			if c.DMKey == channel.DMKey {
				return models.ErrConflict
			}
		}
	}
	channel.ID = models.NewObjectID()
	channel.CreatedAt = time.Now()
	s.channels[channel.ID] = *channel
	return nil
}

func (s fakeChannels) GetByID(ctx context.Context, id models.ObjectID) (*models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.channels[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (s fakeChannels) GetByDMKey(ctx context.Context, dmKey string) (*models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.channels {
		if c.DMKey == dmKey {
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s fakeChannels) ListByIDs(ctx context.Context, ids []models.ObjectID) ([]models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Channel{}
	for _, id := range ids {
		if c, ok := s.channels[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s fakeChannels) TouchLastMessage(ctx context.Context, id models.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channels[id]
	c.LastMessageAt = &at
	s.channels[id] = c
	return nil
}

func (s fakeMembers) Add(ctx context.Context, channelID, userID models.ObjectID, role string) (*models.ChannelMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.members {
		if m.ChannelID == channelID && m.UserID == userID {
			return &s.members[i], nil
		}
	}
	m := models.ChannelMember{ID: models.NewObjectID(), ChannelID: channelID, UserID: userID, Role: role, JoinedAt: time.Now()}
	s.members = append(s.members, m)
	return &m, nil
}

func (s fakeMembers) Remove(ctx context.Context, channelID, userID models.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.members)
	s.members = slices.DeleteFunc(s.members, func(m models.ChannelMember) bool {
		return m.ChannelID == channelID && m.UserID == userID
	})
	if len(s.members) == n {
		return models.ErrNotFound
	}
	return nil
}

func (s fakeMembers) IsMember(ctx context.Context, channelID, userID models.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.ContainsFunc(s.members, func(m models.ChannelMember) bool {
		return m.ChannelID == channelID && m.UserID == userID
	}), nil
}

func (s fakeMembers) ListByChannel(ctx context.Context, channelID models.ObjectID) ([]models.ChannelMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ChannelMember{}
	for _, m := range s.members {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s fakeMembers) ListChannelIDs(ctx context.Context, userID models.ObjectID) ([]models.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ObjectID{}
	for _, m := range s.members {
		if m.UserID == userID {
			out = append(out, m.ChannelID)
		}
	}
	return out, nil
}

func (s fakeUsers) GetByID(ctx context.Context, id models.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (s fakeUsers) Upsert(ctx context.Context, user models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.IsActive = true
	s.users[user.ID] = user
	return &user, nil
}

func (s fakeUsers) Search(ctx context.Context, query string, limit, offset int) (*mongodb.PaginateWithTotal[models.User], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.User
	for _, u := range s.users {
		if strings.HasPrefix(strings.ToLower(u.Name), strings.ToLower(query)) {
			all = append(all, u)
		}
	}
	slices.SortFunc(all, func(a, b models.User) int { return cmp.Compare(a.Name, b.Name) })
	page := all[min(offset, len(all)):min(offset+limit, len(all))]
	return &mongodb.PaginateWithTotal[models.User]{Total: int64(len(all)), Data: page}, nil
}

func (s fakeMessages) Create(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock++
	msg.ID = models.NewObjectID()
	msg.CreationTime = s.clock
	msg.CreatedAt = time.Now()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s fakeMessages) GetByID(ctx context.Context, id models.ObjectID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s fakeMessages) inChannel(channelID models.ObjectID, keep func(models.Message) bool) []models.Message {
	out := []models.Message{}
	for _, m := range s.messages {
		if m.ChannelID == channelID && keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s fakeMessages) ListLatest(ctx context.Context, channelID models.ObjectID, limit int) (models.LiveBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	all := s.inChannel(channelID, func(models.Message) bool { return true })
	window := all[max(len(all)-limit, 0):]
	rng := models.LiveRange{}
	if len(window) == limit && len(window) > 0 {
		rng.From = window[0].CreationTime
	}
	return models.LiveBatch{ChannelID: channelID, Messages: window, Range: rng}, nil
}

func (s fakeMessages) ListBefore(ctx context.Context, channelID models.ObjectID, beforeTime int64, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.inChannel(channelID, func(m models.Message) bool { return m.CreationTime < beforeTime })
	return all[max(len(all)-limit, 0):], nil
}

func (s fakeMessages) ListBeforeMessage(ctx context.Context, id models.ObjectID, limit int) ([]models.Message, error) {
	pivot, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ListBefore(ctx, pivot.ChannelID, pivot.CreationTime, limit)
}

func (s fakeMessages) ListAfterMessage(ctx context.Context, id models.ObjectID, limit int) ([]models.Message, error) {
	pivot, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.inChannel(pivot.ChannelID, func(m models.Message) bool { return m.CreationTime > pivot.CreationTime })
	return all[:min(limit, len(all))], nil
}

func (s fakeMessages) Context(ctx context.Context, id models.ObjectID, size int) (models.MessageContext, error) {
	target, err := s.GetByID(ctx, id)
	if err != nil {
		return models.MessageContext{}, err
	}
	before, _ := s.ListBeforeMessage(ctx, id, size)
	after, _ := s.ListAfterMessage(ctx, id, size)
	msgs := append(append(before, *target), after...)
	return models.MessageContext{Messages: msgs, TargetIndex: len(before)}, nil
}

func (s fakeMessages) UpdateBody(ctx context.Context, id models.ObjectID, body string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages[i].Body = body
			s.messages[i].Edited = true
			updated := s.messages[i]
			return &updated, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s fakeMessages) Delete(ctx context.Context, id models.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = slices.DeleteFunc(s.messages, func(m models.Message) bool { return m.ID == id })
	return nil
}

func (s fakeReactions) Add(ctx context.Context, reaction *models.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reactions {
		if r.MessageID == reaction.MessageID && r.UserID == reaction.UserID && r.Emoji == reaction.Emoji {
			return models.ErrConflict
		}
	}
	reaction.ID = models.NewObjectID()
	s.reactions = append(s.reactions, *reaction)
	return nil
}

func (s fakeReactions) Remove(ctx context.Context, messageID, userID models.ObjectID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.reactions)
	s.reactions = slices.DeleteFunc(s.reactions, func(r models.Reaction) bool {
		return r.MessageID == messageID && r.UserID == userID && r.Emoji == emoji
	})
	if len(s.reactions) == n {
		return models.ErrNotFound
	}
	return nil
}

func (s fakeReactions) Counts(ctx context.Context, messageID models.ObjectID) ([]models.ReactionCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ReactionCount{}
	for _, r := range s.reactions {
		if r.MessageID != messageID {
			continue
		}
		i := slices.IndexFunc(out, func(c models.ReactionCount) bool { return c.Emoji == r.Emoji })
		if i < 0 {
			out = append(out, models.ReactionCount{Emoji: r.Emoji})
			i = len(out) - 1
		}
		out[i].Count++
		out[i].UserIDs = append(out[i].UserIDs, r.UserID)
	}
	return out, nil
}

func (s fakeReactions) DeleteByMessage(ctx context.Context, messageID models.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.reactions)
	s.reactions = slices.DeleteFunc(s.reactions, func(r models.Reaction) bool { return r.MessageID == messageID })
	return int64(n - len(s.reactions)), nil
}

func (s fakeReceipts) Mark(ctx context.Context, messageID, userID, channelID models.ObjectID) (*models.ReadReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := models.ReadReceipt{ID: models.NewObjectID(), MessageID: messageID, UserID: userID, ChannelID: channelID, ReadAt: time.Now()}
	s.receipts = append(s.receipts, r)
	return &r, nil
}

func (s fakeReceipts) CountByMessage(ctx context.Context, messageID models.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.receipts {
		if r.MessageID == messageID {
			n++
		}
	}
	return n, nil
}

func (s fakeReceipts) DeleteByMessage(ctx context.Context, messageID models.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.receipts)
	s.receipts = slices.DeleteFunc(s.receipts, func(r models.ReadReceipt) bool { return r.MessageID == messageID })
	return int64(n - len(s.receipts)), nil
}

func (s fakeBulletins) Create(ctx context.Context, bulletin *models.Bulletin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bulletin.ID = models.NewObjectID()
	s.bulletins = append(s.bulletins, *bulletin)
	return nil
}

func (s fakeBulletins) ListByChannel(ctx context.Context, channelID models.ObjectID, limit int) ([]models.Bulletin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Bulletin{}
	for _, b := range s.bulletins {
		if b.ChannelID == channelID {
			out = append(out, b)
		}
	}
	return out[:min(limit, len(out))], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.MessageEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.MessageEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []models.MessageEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.MessageEventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var (
	_ mongodb.ChannelRepository  = fakeChannels{}
	_ mongodb.MemberRepository   = fakeMembers{}
	_ mongodb.UserRepository     = fakeUsers{}
	_ mongodb.MessageRepository  = fakeMessages{}
	_ mongodb.ReactionRepository = fakeReactions{}
	_ mongodb.ReceiptRepository  = fakeReceipts{}
	_ mongodb.BulletinRepository = fakeBulletins{}
)
