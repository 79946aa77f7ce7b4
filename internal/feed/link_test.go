package feed

import (
	"errors"
	"testing"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageLink(t *testing.T) {
	assert.Equal(t, "/channel/c1?messageId=m2", BuildMessageLink(LinkChannel, "c1", "m2"))
	assert.Equal(t, "/dm/d9", BuildMessageLink(LinkDM, "d9", ""))
	assert.Equal(t, "/dm/d9?messageId=m1", MessageLink{Kind: LinkDM, ConversationID: "d9", MessageID: "m1"}.String())
}

func TestParseMessageLink(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    MessageLink
		wantErr bool
	}{
		{
			name: "channel with target",
			raw:  "/channel/c1?messageId=m2",
			want: MessageLink{Kind: LinkChannel, ConversationID: "c1", MessageID: "m2"},
		},
		{
			name: "dm without target",
			raw:  "/dm/d9",
			want: MessageLink{Kind: LinkDM, ConversationID: "d9"},
		},
		{
			name: "full url",
			raw:  " https://chat.example.com/channel/c1/?messageId=m2&foo=bar ",
			want: MessageLink{Kind: LinkChannel, ConversationID: "c1", MessageID: "m2"},
		},
		{name: "unknown kind", raw: "/thread/c1", wantErr: true},
		{name: "missing id", raw: "/channel/", wantErr: true},
		{name: "too deep", raw: "/channel/c1/m2", wantErr: true},
		{name: "bad url", raw: "%zz", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMessageLink(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.MessageID != "", got.HasTarget())
		})
	}
}

func TestMessageLinkRoundTrip(t *testing.T) {
	link := MessageLink{Kind: LinkChannel, ConversationID: "65f0c0ffee", MessageID: "65f0beef"}
	got, err := ParseMessageLink(link.String())
	require.NoError(t, err)
	assert.Equal(t, link, got)
}
