// Package setup seeds a workspace with users and channels described in YAML.
package setup

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/internal/usecase"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"gopkg.in/yaml.v3"
)

//go:embed data/workspace.yaml
var DefaultWorkspace []byte

type Workspace struct {
	Users    []SeedUser    `yaml:"users"`
	Channels []SeedChannel `yaml:"channels"`
}

type SeedUser struct {
	ID    models.ObjectID `yaml:"id"`
	Name  string          `yaml:"name"`
	Email string          `yaml:"email"`
	Title string          `yaml:"title"`
}

type SeedChannel struct {
	Name    string             `yaml:"name"`
	Topic   string             `yaml:"topic"`
	Type    models.ChannelType `yaml:"type"`
	Owner   models.ObjectID    `yaml:"owner"`
	Members []models.ObjectID  `yaml:"members"`
}

func ParseWorkspace(data []byte) (*Workspace, error) {
	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("unmarshal workspace: %w", err)
	}
	for _, u := range ws.Users {
		if !u.ID.IsValid() {
			return nil, fmt.Errorf("user %q has invalid id %q: %w", u.Name, u.ID, models.ErrInvalidArgument)
		}
	}
	for i, ch := range ws.Channels {
		if !ch.Owner.IsValid() {
			return nil, fmt.Errorf("channel %q has invalid owner %q: %w", ch.Name, ch.Owner, models.ErrInvalidArgument)
		}
		if ch.Type == "" {
			ws.Channels[i].Type = models.ChannelTypePublic
		}
	}
	return &ws, nil
}

type Seeder struct {
	chat  usecase.ChatUsecase
	users usecase.UserUsecase
}

func NewSeeder(chat usecase.ChatUsecase, users usecase.UserUsecase) *Seeder {
	return &Seeder{chat: chat, users: users}
}

// Seed creates what the workspace describes. Channels are matched by name
// among the owner's channels, so running it twice creates nothing new.
func (s *Seeder) Seed(ctx context.Context, ws *Workspace) error {
	for _, u := range ws.Users {
		if _, err := s.users.SyncProfile(ctx, models.User{ID: u.ID, Name: u.Name, Email: u.Email, Title: u.Title, IsActive: true}); err != nil {
			return fmt.Errorf("sync user %s: %w", u.ID, err)
		}
	}
	log.Debugw(ctx, "seeded users", "count", len(ws.Users))

	for _, ch := range ws.Channels {
		existing, err := s.findChannel(ctx, ch.Owner, ch.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			log.Debugw(ctx, "channel already exists", "name", ch.Name, "channel_id", existing.ID)
			continue
		}
		created, err := s.chat.CreateChannel(ctx, ch.Owner, usecase.CreateChannelParams{
			Name:  ch.Name,
			Topic: ch.Topic,
			Type:  ch.Type,
		})
		if err != nil {
			return fmt.Errorf("create channel %q: %w", ch.Name, err)
		}
		for _, member := range ch.Members {
			err := s.chat.JoinChannel(ctx, member, created.ID)
			if errors.Is(err, models.ErrForbidden) {
				log.Warnw(ctx, "member cannot join channel", "name", ch.Name, "user_id", member)
				continue
			}
			if err != nil {
				return fmt.Errorf("join %s to %q: %w", member, ch.Name, err)
			}
		}
		log.Infow(ctx, "seeded channel", "name", ch.Name, "channel_id", created.ID, "members", len(ch.Members)+1)
	}
	return nil
}

func (s *Seeder) findChannel(ctx context.Context, owner models.ObjectID, name string) (*models.Channel, error) {
	channels, err := s.chat.ListChannels(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list channels of %s: %w", owner, err)
	}
	for i := range channels {
		if channels[i].Type != models.ChannelTypeDM && channels[i].Name == name {
			return &channels[i], nil
		}
	}
	return nil, nil
}
