package feed

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
)

type LinkKind string

const (
	LinkChannel LinkKind = "channel"
	LinkDM      LinkKind = "dm"
)

// MessageLink addresses a conversation and, optionally, a message in it.
type MessageLink struct {
	Kind           LinkKind
	ConversationID models.ObjectID
	MessageID      models.ObjectID
}

// HasTarget reports whether the link should open a ContextFeed.
func (l MessageLink) HasTarget() bool {
	return l.MessageID != ""
}

func (l MessageLink) String() string {
	return BuildMessageLink(l.Kind, l.ConversationID, l.MessageID)
}

// BuildMessageLink renders /channel/{id}?messageId={id} or the /dm form.
// An empty messageID yields the plain conversation link.
func BuildMessageLink(kind LinkKind, conversationID, messageID models.ObjectID) string {
	path := "/" + string(kind) + "/" + url.PathEscape(string(conversationID))
	if messageID == "" {
		return path
	}
	return path + "?" + url.Values{"messageId": {string(messageID)}}.Encode()
}

// ParseMessageLink accepts a path with query or a full URL.
func ParseMessageLink(raw string) (MessageLink, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return MessageLink{}, fmt.Errorf("%w: parse link: %v", models.ErrInvalidArgument, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[1] == "" {
		return MessageLink{}, fmt.Errorf("%w: unexpected link path %q", models.ErrInvalidArgument, u.Path)
	}

	kind := LinkKind(parts[0])
	if kind != LinkChannel && kind != LinkDM {
		return MessageLink{}, fmt.Errorf("%w: unknown conversation kind %q", models.ErrInvalidArgument, parts[0])
	}
	return MessageLink{
		Kind:           kind,
		ConversationID: models.ObjectID(parts[1]),
		MessageID:      models.ObjectID(u.Query().Get("messageId")),
	}, nil
}
